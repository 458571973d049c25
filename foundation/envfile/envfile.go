// Package envfile maintains the node's shell-style configuration file.
// The file is a set of newline delimited KEY=VALUE pairs that the node
// reads through its process environment. This package owns the three
// mutations the provisioning flow performs: seeding the file from the
// repository template, appending default logging keys, and upserting
// the mining public key. Lines this package does not recognize are
// preserved byte for byte so operator customizations survive.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Name is the configuration file the node reads.
	Name = ".env"

	// TemplateName is the template shipped in the nockchain repository
	// that seeds a fresh configuration file.
	TemplateName = ".env_example"
)

// KeyMiningPubKey holds the operator's mining public key. The value is
// opaque to this tool.
const KeyMiningPubKey = "MINING_PUBKEY"

// Default logging directives appended when the file carries no RUST_LOG
// key at all.
const (
	defaultRustLog   = "RUST_LOG=info,nockchain=info,nockchain_libp2p_io=info,libp2p=info,libp2p_quic=info"
	defaultLogFormat = "MINIMAL_LOG_FORMAT=true"
)

// Path returns the location of the configuration file inside the
// nockchain install directory.
func Path(installDir string) string {
	return filepath.Join(installDir, Name)
}

// Seed creates the configuration file from the repository template if
// it does not exist yet. An existing file is never touched, so values
// the operator customized are kept. Seeding a directory that has
// neither the file nor the template is a fatal setup condition.
func Seed(installDir string) error {
	path := Path(installDir)

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	template := filepath.Join(installDir, TemplateName)
	data, err := os.ReadFile(template)
	if err != nil {
		return fmt.Errorf("config file missing and template %q not readable: %w", template, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("seeding config file: %w", err)
	}

	return nil
}

// EnsureLoggingDefaults appends the default RUST_LOG and
// MINIMAL_LOG_FORMAT lines when the file carries no RUST_LOG key.
// Presence of the substring anywhere in the file, even commented out
// or with an empty value, suppresses defaulting.
func EnsureLoggingDefaults(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if strings.Contains(string(data), "RUST_LOG") {
		return nil
	}

	text := string(data)
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += defaultRustLog + "\n" + defaultLogFormat + "\n"

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing logging defaults: %w", err)
	}

	return nil
}

// SetKey replaces the value of an existing KEY=... line, or appends a
// new line when the key is absent. All other lines are preserved.
func SetKey(path string, key string, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, key+"=") {
			lines[i] = key + "=" + value
			replaced = true
			break
		}
	}

	if !replaced {
		lines = append(lines, key+"="+value)
	}

	text := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}

	return nil
}

// Get returns the value of the first KEY=... line, or the empty string
// when the key is absent.
func Get(path string, key string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading config file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, key+"=") {
			return strings.TrimPrefix(line, key+"="), nil
		}
	}

	return "", nil
}

// NeedsMiningKey reports whether key provisioning should run: the
// MINING_PUBKEY line is absent, or present with an exactly empty value.
// A value of only whitespace counts as configured.
func NeedsMiningKey(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading config file: %w", err)
	}

	found := false
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, KeyMiningPubKey+"=") {
			continue
		}
		found = true
		if line == KeyMiningPubKey+"=" {
			return true, nil
		}
	}

	return !found, nil
}

// Environ parses the file into KEY=VALUE strings suitable for a child
// process environment. Blank lines and # comments are skipped.
func Environ(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var env []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !strings.Contains(trimmed, "=") {
			continue
		}
		env = append(env, trimmed)
	}

	return env, nil
}

package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nocktools/nockup/foundation/envfile"
	"github.com/nocktools/nockup/foundation/run"
)

// Set of failures key extraction can report. Both are fatal: the
// operator has to inspect the wallet output by hand.
var (
	ErrKeyNotFound = errors.New("no public key line in keygen output")
	ErrEmptyKey    = errors.New("public key line carries no value")
)

// ParsePublicKey scans wallet keygen output for a line containing the
// "Public Key" label and returns its last whitespace delimited token.
func ParsePublicKey(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "Public Key") {
			continue
		}

		fields := strings.Fields(line)
		key := strings.Trim(fields[len(fields)-1], `":`)
		if key == "" || key == "Key" {
			return "", ErrEmptyKey
		}

		return key, nil
	}

	return "", ErrKeyNotFound
}

// MiningKey generates a wallet keypair through the external wallet
// binary and records the public key in the configuration file. The
// step is skipped when a key is already configured.
type MiningKey struct{}

// Name implements the Step interface.
func (MiningKey) Name() string { return "mining-key" }

// Run implements the Step interface.
func (MiningKey) Run(ctx context.Context, pc Context) (Result, error) {
	path := envfile.Path(pc.Cfg.InstallDir)

	need, err := envfile.NeedsMiningKey(path)
	if err != nil {
		return Result{}, err
	}
	if !need {
		return Result{Status: StatusSkipped, Detail: "mining key already configured"}, nil
	}

	cmd := run.Command{
		Name:      pc.Cfg.WalletBinary,
		Args:      []string{"keygen"},
		Dir:       pc.Cfg.InstallDir,
		ExtraPath: []string{pc.Cfg.CargoBin()},
	}
	out, err := pc.Runner.Output(ctx, cmd)
	if err != nil {
		return Result{}, fmt.Errorf("generating wallet keypair: %w", err)
	}

	key, err := ParsePublicKey(out)
	if err != nil {
		return Result{}, err
	}

	if err := envfile.SetKey(path, envfile.KeyMiningPubKey, key); err != nil {
		return Result{}, err
	}

	fmt.Fprintf(pc.Cfg.Stdout, "Mining public key: %s\n", key)
	fmt.Fprintln(pc.Cfg.Stdout, "The wallet printed a seed phrase above. Write it down now; it is not stored anywhere and cannot be recovered.")

	return Result{Detail: "mining key written to " + envfile.Name}, nil
}

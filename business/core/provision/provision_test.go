package provision_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nocktools/nockup/business/core/provision"
	"github.com/nocktools/nockup/foundation/envfile"
	"github.com/nocktools/nockup/foundation/run"
	"go.uber.org/zap"
)

func testConfig(installDir string) provision.Config {
	return provision.Config{
		HomeDir:      "/home/op",
		InstallDir:   installDir,
		RepoURL:      "https://github.com/zorp-corp/nockchain",
		WalletBinary: "nockchain-wallet",
		ProbeHost:    "127.0.0.1",
		PeerPort:     3006,
		ProbeTimeout: 100 * time.Millisecond,
	}
}

func runStep(t *testing.T, rec *run.Recorder, cfg provision.Config, step provision.Step) ([]provision.Result, error) {
	t.Helper()
	p := provision.New(zap.NewNop().Sugar(), rec, cfg, step)
	return p.Run(context.Background())
}

func TestToolchain(t *testing.T) {
	t.Log("Given the need to ensure the Rust toolchain.")
	{
		t.Logf("\tTest 0:\tWhen the toolchain is absent.")
		{
			rec := run.Recorder{Missing: []string{"rustup"}}

			results, err := runStep(t, &rec, testConfig(t.TempDir()), provision.Toolchain{})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to install the toolchain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to install the toolchain.", success)

			lines := rec.Lines()
			if len(lines) != 1 || !strings.HasPrefix(lines[0], "sh -c curl --proto '=https' --tlsv1.2") {
				t.Fatalf("\t%s\tTest 0:\tShould fetch the installer over pinned TLS: got %v", failed, lines)
			}
			t.Logf("\t%s\tTest 0:\tShould fetch the installer over pinned TLS.", success)

			if results[0].Status != provision.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould report OK: got %s", failed, results[0].Status)
			}
			t.Logf("\t%s\tTest 0:\tShould report OK.", success)
		}

		t.Logf("\tTest 1:\tWhen the toolchain is already installed.")
		{
			rec := run.Recorder{}

			if _, err := runStep(t, &rec, testConfig(t.TempDir()), provision.Toolchain{}); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to update the toolchain: %v", failed, err)
			}

			lines := rec.Lines()
			if len(lines) != 1 || lines[0] != "rustup update" {
				t.Fatalf("\t%s\tTest 1:\tShould only run the self update: got %v", failed, lines)
			}
			t.Logf("\t%s\tTest 1:\tShould only run the self update.", success)
		}

		t.Logf("\tTest 2:\tWhen cargo does not resolve after setup.")
		{
			rec := run.Recorder{Missing: []string{"rustup", "cargo"}}

			results, err := runStep(t, &rec, testConfig(t.TempDir()), provision.Toolchain{})
			if err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould fail fatally.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould fail fatally.", success)

			if results[0].Status != provision.StatusFailed {
				t.Fatalf("\t%s\tTest 2:\tShould record a failed result.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould record a failed result.", success)
		}
	}
}

func TestSourceSync(t *testing.T) {
	t.Log("Given the need to synchronize the upstream source.")
	{
		t.Logf("\tTest 0:\tWhen the install directory exists.")
		{
			dir := t.TempDir()
			os.WriteFile(filepath.Join(dir, envfile.TemplateName), []byte("MINING_PUBKEY=\n"), 0644)

			rec := run.Recorder{}
			if _, err := runStep(t, &rec, testConfig(dir), provision.SourceSync{}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sync: %v", failed, err)
			}

			lines := rec.Lines()
			if len(lines) != 1 || lines[0] != "git -C "+dir+" pull" {
				t.Fatalf("\t%s\tTest 0:\tShould pull updates in place: got %v", failed, lines)
			}
			t.Logf("\t%s\tTest 0:\tShould pull updates in place.", success)

			data, err := os.ReadFile(envfile.Path(dir))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould seed the config file: %v", failed, err)
			}
			if strings.Count(string(data), "RUST_LOG=") != 1 || !strings.Contains(string(data), "MINIMAL_LOG_FORMAT=true") {
				t.Fatalf("\t%s\tTest 0:\tShould apply logging defaults: got %q", failed, data)
			}
			t.Logf("\t%s\tTest 0:\tShould seed the config file with logging defaults.", success)
		}

		t.Logf("\tTest 1:\tWhen syncing a second time with a customized config.")
		{
			dir := t.TempDir()
			os.WriteFile(filepath.Join(dir, envfile.TemplateName), []byte("MINING_PUBKEY=\n"), 0644)
			os.WriteFile(envfile.Path(dir), []byte("RUST_LOG=debug\nMINING_PUBKEY=mine\n"), 0644)

			rec := run.Recorder{}
			if _, err := runStep(t, &rec, testConfig(dir), provision.SourceSync{}); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sync: %v", failed, err)
			}

			data, _ := os.ReadFile(envfile.Path(dir))
			if string(data) != "RUST_LOG=debug\nMINING_PUBKEY=mine\n" {
				t.Fatalf("\t%s\tTest 1:\tShould never overwrite a customized config: got %q", failed, data)
			}
			t.Logf("\t%s\tTest 1:\tShould never overwrite a customized config.", success)
		}

		t.Logf("\tTest 2:\tWhen the install directory is absent.")
		{
			dir := filepath.Join(t.TempDir(), "nockchain")

			rec := run.Recorder{}
			cfg := testConfig(dir)
			_, err := runStep(t, &rec, cfg, provision.SourceSync{})

			lines := rec.Lines()
			if len(lines) != 1 || lines[0] != "git clone "+cfg.RepoURL+" "+dir {
				t.Fatalf("\t%s\tTest 2:\tShould clone the repository: got %v", failed, lines)
			}
			t.Logf("\t%s\tTest 2:\tShould clone the repository.", success)

			// The recorded clone creates nothing on disk, so seeding has
			// to fail over the missing template.
			if err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould fail when no template appears.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould fail when no template appears.", success)
		}
	}
}

func TestMiningKey(t *testing.T) {
	t.Log("Given the need to provision a mining key.")
	{
		t.Logf("\tTest 0:\tWhen a key is already configured.")
		{
			dir := t.TempDir()
			os.WriteFile(envfile.Path(dir), []byte("MINING_PUBKEY=existing\n"), 0644)

			rec := run.Recorder{}
			results, err := runStep(t, &rec, testConfig(dir), provision.MiningKey{})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould not fail: %v", failed, err)
			}

			if results[0].Status != provision.StatusSkipped {
				t.Fatalf("\t%s\tTest 0:\tShould skip the step: got %s", failed, results[0].Status)
			}
			t.Logf("\t%s\tTest 0:\tShould skip the step.", success)

			if len(rec.Calls) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould never invoke the wallet: got %v", failed, rec.Lines())
			}
			t.Logf("\t%s\tTest 0:\tShould never invoke the wallet.", success)
		}

		t.Logf("\tTest 1:\tWhen the key is empty.")
		{
			dir := t.TempDir()
			os.WriteFile(envfile.Path(dir), []byte("RUST_LOG=info\nMINING_PUBKEY=\n"), 0644)

			rec := run.Recorder{
				Responses: map[string]run.Response{
					"nockchain-wallet keygen": {Output: "writing keys\nPublic Key: abc123\nSeed Phrase: do not lose this\n"},
				},
			}

			if _, err := runStep(t, &rec, testConfig(dir), provision.MiningKey{}); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to provision a key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould be able to provision a key.", success)

			data, _ := os.ReadFile(envfile.Path(dir))
			if string(data) != "RUST_LOG=info\nMINING_PUBKEY=abc123\n" {
				t.Fatalf("\t%s\tTest 1:\tShould write the extracted key in place: got %q", failed, data)
			}
			t.Logf("\t%s\tTest 1:\tShould write the extracted key in place.", success)
		}

		t.Logf("\tTest 2:\tWhen the wallet output has no public key.")
		{
			dir := t.TempDir()
			original := "MINING_PUBKEY=\n"
			os.WriteFile(envfile.Path(dir), []byte(original), 0644)

			rec := run.Recorder{
				Responses: map[string]run.Response{
					"nockchain-wallet keygen": {Output: "something went sideways\n"},
				},
			}

			_, err := runStep(t, &rec, testConfig(dir), provision.MiningKey{})
			if !errors.Is(err, provision.ErrKeyNotFound) {
				t.Fatalf("\t%s\tTest 2:\tShould fail with ErrKeyNotFound: got %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould fail with ErrKeyNotFound.", success)

			data, _ := os.ReadFile(envfile.Path(dir))
			if string(data) != original {
				t.Fatalf("\t%s\tTest 2:\tShould leave the config untouched.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould leave the config untouched.", success)
		}
	}
}

func TestBuild(t *testing.T) {
	t.Log("Given the need to build the node and wallet executables.")
	{
		t.Logf("\tTest 0:\tWhen every target succeeds.")
		{
			rec := run.Recorder{}
			if _, err := runStep(t, &rec, testConfig(t.TempDir()), provision.Build{}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build: %v", failed, err)
			}

			exp := []string{"make install-hoonc", "make build", "make install-nockchain-wallet", "make install-nockchain"}
			lines := rec.Lines()
			if len(lines) != len(exp) {
				t.Fatalf("\t%s\tTest 0:\tShould run all four targets: got %v", failed, lines)
			}
			for i := range exp {
				if lines[i] != exp[i] {
					t.Fatalf("\t%s\tTest 0:\tShould run targets in order: got %v", failed, lines)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould run all four targets in order.", success)
		}

		t.Logf("\tTest 1:\tWhen a target fails.")
		{
			rec := run.Recorder{
				Responses: map[string]run.Response{
					"make build": {Err: errors.New("compile error")},
				},
			}

			if _, err := runStep(t, &rec, testConfig(t.TempDir()), provision.Build{}); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould abort on the failing target.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould abort on the failing target.", success)

			if len(rec.Calls) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould not run later targets: got %v", failed, rec.Lines())
			}
			t.Logf("\t%s\tTest 1:\tShould not run later targets.", success)
		}
	}
}

func TestPipelineFailFast(t *testing.T) {
	t.Log("Given the need to stop at the first failing step.")
	{
		rec := run.Recorder{
			Responses: map[string]run.Response{
				"sudo apt-get update": {Err: errors.New("no network")},
			},
		}

		p := provision.New(zap.NewNop().Sugar(), &rec, testConfig(t.TempDir()))
		results, err := p.Run(context.Background())
		if err == nil {
			t.Fatalf("\t%s\tShould return the failure.", failed)
		}
		t.Logf("\t%s\tShould return the failure.", success)

		if len(results) != 1 || results[0].Status != provision.StatusFailed || results[0].Step != "system-packages" {
			t.Fatalf("\t%s\tShould record exactly the failing step: got %v", failed, results)
		}
		t.Logf("\t%s\tShould record exactly the failing step.", success)

		if len(rec.Calls) != 1 {
			t.Fatalf("\t%s\tShould never reach later steps: got %v", failed, rec.Lines())
		}
		t.Logf("\t%s\tShould never reach later steps.", success)
	}
}

func TestPortCheckAdvisory(t *testing.T) {
	t.Log("Given the need to keep the reachability probe advisory.")
	{
		// Nothing listens on the probe port, so the probe must time out
		// and still not fail the pipeline.
		rec := run.Recorder{}
		cfg := testConfig(t.TempDir())
		cfg.ProbeHost = "127.0.0.1"
		cfg.PeerPort = 39999

		results, err := runStep(t, &rec, cfg, provision.PortCheck{})
		if err != nil {
			t.Fatalf("\t%s\tShould never propagate a probe failure: %v", failed, err)
		}
		t.Logf("\t%s\tShould never propagate a probe failure.", success)

		if results[0].Status != provision.StatusWarning {
			t.Fatalf("\t%s\tShould report a warning: got %s", failed, results[0].Status)
		}
		t.Logf("\t%s\tShould report a warning.", success)
	}
}

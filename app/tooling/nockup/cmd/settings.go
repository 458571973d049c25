package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/nocktools/nockup/business/core/provision"
	"github.com/nocktools/nockup/business/sys/validate"
)

// settings carries the resolved operational configuration every
// command works from.
type settings struct {
	HomeDir      string
	InstallDir   string
	RepoURL      string
	PublicIP     string
	PeerPort     int
	NodeBinary   string
	WalletBinary string
	ProbeHost    string
	ProbeTimeout time.Duration
	StatusHost   string
}

// loadSettings parses the NOCKUP_* environment, applies defaults, and
// validates the result. The configuration is logged the way services
// log theirs so a provisioning run is reproducible from its output.
func loadSettings() (settings, error) {
	cfg := struct {
		conf.Version
		Node struct {
			InstallDir   string `conf:"default:~/nockchain"`
			RepoURL      string `conf:"default:https://github.com/zorp-corp/nockchain"`
			PublicIP     string `conf:"default:127.0.0.1"`
			PeerPort     int    `conf:"default:3006"`
			Binary       string `conf:"default:nockchain"`
			WalletBinary string `conf:"default:nockchain-wallet"`
		}
		Probe struct {
			Host    string        `conf:"default:canyouseeme.org"`
			Timeout time.Duration `conf:"default:3s"`
		}
		Web struct {
			StatusHost string `conf:"default:0.0.0.0:7080"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "Nockchain node provisioning",
		},
	}

	const prefix = "NOCKUP"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return settings{}, err
		}
		return settings{}, fmt.Errorf("parsing config: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return settings{}, fmt.Errorf("resolving home dir: %w", err)
	}

	installDir := cfg.Node.InstallDir
	if strings.HasPrefix(installDir, "~/") {
		installDir = filepath.Join(home, installDir[2:])
	}

	check := struct {
		PublicIP string `json:"public_ip" validate:"required,ip4_addr"`
		PeerPort int    `json:"peer_port" validate:"required,min=1,max=65535"`
		RepoURL  string `json:"repo_url" validate:"required,url"`
	}{
		PublicIP: cfg.Node.PublicIP,
		PeerPort: cfg.Node.PeerPort,
		RepoURL:  cfg.Node.RepoURL,
	}
	if err := validate.Check(check); err != nil {
		return settings{}, fmt.Errorf("validating settings: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return settings{}, fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	return settings{
		HomeDir:      home,
		InstallDir:   installDir,
		RepoURL:      cfg.Node.RepoURL,
		PublicIP:     cfg.Node.PublicIP,
		PeerPort:     cfg.Node.PeerPort,
		NodeBinary:   cfg.Node.Binary,
		WalletBinary: cfg.Node.WalletBinary,
		ProbeHost:    cfg.Probe.Host,
		ProbeTimeout: cfg.Probe.Timeout,
		StatusHost:   cfg.Web.StatusHost,
	}, nil
}

// provisionConfig adapts the settings for the pipeline.
func (s settings) provisionConfig() provision.Config {
	return provision.Config{
		HomeDir:      s.HomeDir,
		InstallDir:   s.InstallDir,
		RepoURL:      s.RepoURL,
		WalletBinary: s.WalletBinary,
		ProbeHost:    s.ProbeHost,
		PeerPort:     s.PeerPort,
		ProbeTimeout: s.ProbeTimeout,
		Stdout:       os.Stdout,
	}
}

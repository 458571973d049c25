package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nocktools/nockup/app/tooling/nockup/handlers"
	"github.com/nocktools/nockup/business/core/node"
	"github.com/nocktools/nockup/foundation/envfile"
	"github.com/nocktools/nockup/foundation/events"
	"github.com/nocktools/nockup/foundation/run"
)

// nodeLauncher runs the node binary and serves the status API for the
// duration of the run. It satisfies menu.Launcher so the interactive
// loop and the run command share one code path.
type nodeLauncher struct {
	s    settings
	evts *events.Events

	mu     sync.Mutex
	status handlers.NodeStatus
}

func newLauncher(s settings) *nodeLauncher {
	return &nodeLauncher{
		s:    s,
		evts: events.New(),
	}
}

func (l *nodeLauncher) snapshot() handlers.NodeStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *nodeLauncher) setStatus(status handlers.NodeStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = status
}

// Launch starts the node, blocking until it exits. The status API is
// served on the side while the process lives.
func (l *nodeLauncher) Launch(ctx context.Context, mine bool) error {

	// Population of the mining key is best effort, so warn rather than
	// refuse when it is missing.
	if key, err := envfile.Get(envfile.Path(l.s.InstallDir), envfile.KeyMiningPubKey); err == nil && key == "" {
		fmt.Println("WARNING: MINING_PUBKEY is empty, run `nockup keygen` to provision one.")
	}

	bind := fmt.Sprintf("/ip4/%s/udp/%d/quic-v1", l.s.PublicIP, l.s.PeerPort)

	l.setStatus(handlers.NodeStatus{
		Running:   true,
		Mining:    mine,
		StartedAt: time.Now().UTC(),
		Bind:      bind,
	})
	defer l.setStatus(handlers.NodeStatus{Bind: bind})

	shutdown := make(chan os.Signal, 1)
	mux := handlers.StatusMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Evts:     l.evts,
		Status:   l.snapshot,
	})

	srv := http.Server{
		Addr:    l.s.StatusHost,
		Handler: mux,
	}

	go func() {
		log.Infow("status", "status", "api started", "host", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("status", "status", "api closed", "host", srv.Addr, "ERROR", err)
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
		}
	}()

	n := node.New(node.Config{
		Log:        log,
		Runner:     run.ExecRunner{},
		Evts:       l.evts,
		InstallDir: l.s.InstallDir,
		Binary:     l.s.NodeBinary,
		PublicIP:   l.s.PublicIP,
		PeerPort:   l.s.PeerPort,
		ExtraPath:  []string{l.s.provisionConfig().CargoBin()},
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	})

	return n.Launch(ctx, mine)
}

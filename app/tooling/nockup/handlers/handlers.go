// Package handlers manages the status API served while the node runs.
package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nocktools/nockup/business/web/mid"
	"github.com/nocktools/nockup/foundation/events"
	"github.com/nocktools/nockup/foundation/web"
	"go.uber.org/zap"
)

// NodeStatus is the shape returned by the status endpoint.
type NodeStatus struct {
	Running   bool      `json:"running"`
	Mining    bool      `json:"mining"`
	StartedAt time.Time `json:"started_at,omitzero"`
	Bind      string    `json:"bind"`
}

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	Evts     *events.Events
	Status   func() NodeStatus
}

// StatusMux constructs a http.Handler with all status routes defined.
func StatusMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Cors("*"),
		mid.Panics(),
	)

	sg := statusGroup{
		log:    cfg.Log,
		evts:   cfg.Evts,
		status: cfg.Status,
	}

	const version = "v1"
	app.Handle(http.MethodGet, version, "/status", sg.nodeStatus)
	app.Handle(http.MethodGet, version, "/events", sg.events)

	return app
}

type statusGroup struct {
	log    *zap.SugaredLogger
	evts   *events.Events
	status func() NodeStatus
	ws     websocket.Upgrader
}

// nodeStatus reports whether the node is running and how it is bound.
func (sg statusGroup) nodeStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, sg.status(), http.StatusOK)
}

// events handles a web socket to stream node output to a client.
func (sg statusGroup) events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	sg.ws.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := sg.ws.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := sg.evts.Acquire(v.TraceID)
	defer sg.evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Package rpcsvc publishes the host daemon's RPC surface (spec.md §6) over
// HTTP: per-output get/set/pulse, per-input get.
package rpcsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LinkBridge is the subset of host.Link the RPC surface depends on. It is a
// narrow interface so rpcsvc can be tested without a real serial link (spec
// §9: "three method entry points on a single capability, no type
// hierarchy" — translated here to three resource verbs against one
// capability per output/input).
type LinkBridge interface {
	SetOutput(ctx context.Context, i int, v bool) error
	GetOutput(ctx context.Context, i int) (bool, error)
	Pulse(ctx context.Context, i int, long bool) error
	GetInput(ctx context.Context, i int) (bool, error)
}

// Server exposes a LinkBridge over HTTP.
type Server struct {
	bridge LinkBridge
	log    *zap.SugaredLogger
	engine *gin.Engine
	http   *http.Server
}

// New builds a Server bound to bridge. Pass a nil logger to disable
// logging.
func New(bridge LinkBridge, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{bridge: bridge, log: log, engine: engine}
	s.routes()
	return s
}

// routes registers one literal path per line (GET/PUT /out0../out15/state,
// POST /out{n}/pulse, GET /in0../in7/state), matching spec.md §6's RPC
// surface verbatim rather than a generic /outputs/:index form.
func (s *Server) routes() {
	for i := 0; i < 16; i++ {
		s.engine.GET(fmt.Sprintf("/out%d/state", i), s.getOutput(i))
		s.engine.PUT(fmt.Sprintf("/out%d/state", i), s.putOutput(i))
		s.engine.POST(fmt.Sprintf("/out%d/pulse", i), s.postPulse(i))
	}
	for i := 0; i < 8; i++ {
		s.engine.GET(fmt.Sprintf("/in%d/state", i), s.getInput(i))
	}
}

// Run starts serving addr and blocks until ctx is cancelled or the server
// fails, matching spec.md §9's "stricter error-checked export" decision:
// callers learn about a failed bind rather than it passing silently.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

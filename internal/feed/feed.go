// Package feed serves the live session snapshot over HTTP and WebSocket so
// other local tools can follow a session in progress.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/podium/internal/session"
)

// DefaultInterval is how often /ws pushes a snapshot.
const DefaultInterval = time.Second

const writeTimeout = 5 * time.Second

// Source supplies snapshots. *session.Controller implements it.
type Source interface {
	Snapshot() session.Snapshot
}

// Server publishes snapshots from a Source.
type Server struct {
	src      Source
	interval time.Duration
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// New returns a feed server. A non-positive interval uses DefaultInterval.
func New(src Source, interval time.Duration, log logrus.FieldLogger) *Server {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{src: src, interval: interval, log: log.WithField("component", "feed")}
}

// Handler returns the feed routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/state", s.handleState)
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.src.Snapshot()); err != nil {
		s.log.WithError(err).Debug("writing state")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The read loop only exists to notice the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(s.src.Snapshot()); err != nil {
			s.log.WithError(err).Debug("websocket client dropped")
			return
		}
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-t.C:
		}
	}
}

// ListenAndServe serves the feed on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithField("addr", addr).Info("live feed listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

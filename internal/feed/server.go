package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"gungnir/internal/metrics"
	"gungnir/internal/worker"
)

const (
	defaultNWorkers     = 4
	defaultWriteTimeout = time.Second
)

// clientSession is one connected snapshot subscriber.
type clientSession struct {
	id   string
	conn *websocket.Conn
}

// writeTask carries one marshalled frame to one session via the worker pool.
type writeTask struct {
	session clientSession
	frame   []byte
}

// Server publishes periodic book/trade snapshots to WebSocket clients and
// exposes the metrics endpoint on the same listener. Clients are write-only
// consumers; anything they send is drained and discarded.
type Server struct {
	addr     string
	interval time.Duration
	depth    int
	src      Source

	upgrader websocket.Upgrader
	pool     worker.Pool

	sessions     map[string]clientSession
	sessionsLock sync.Mutex
}

func New(addr string, interval time.Duration, tradeDepth int, src Source) *Server {
	return &Server{
		addr:     addr,
		interval: interval,
		depth:    tradeDepth,
		src:      src,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pool:     worker.NewPool(defaultNWorkers),
		sessions: make(map[string]clientSession),
	}
}

// Run serves until the context is cancelled. The broadcast loop, the write
// workers and the HTTP listener all run under one tomb.
func (s *Server) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: s.addr, Handler: mux}

	s.pool.Run(t, s.writeFrame)

	t.Go(func() error {
		return s.broadcastLoop(t)
	})

	t.Go(func() error {
		<-t.Dying()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info().Str("addr", s.addr).Msg("feed server running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.Kill(err)
	}
	return t.Wait()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	session := clientSession{id: uuid.New().String(), conn: conn}
	s.addSession(session)
	log.Info().Str("session", session.id).Str("remote", r.RemoteAddr).Msg("feed client connected")

	// Drain (and ignore) client frames so pings are answered and closes are
	// noticed promptly.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.dropSession(session.id)
				return
			}
		}
	}()
}

// broadcastLoop marshals one frame per tick and fans it out to every session
// through the worker pool.
func (s *Server) broadcastLoop(t *tomb.Tomb) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			frame, err := json.Marshal(buildSnapshot(s.src, s.depth))
			if err != nil {
				return fmt.Errorf("unable to marshal snapshot: %w", err)
			}
			for _, session := range s.snapshotSessions() {
				s.pool.AddTask(writeTask{session: session, frame: frame})
			}
		}
	}
}

// writeFrame is the worker body: push one frame to one client, dropping the
// session on any write failure.
func (s *Server) writeFrame(t *tomb.Tomb, task any) error {
	wt, ok := task.(writeTask)
	if !ok {
		return fmt.Errorf("improper task type %T", task)
	}

	wt.session.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	if err := wt.session.conn.WriteMessage(websocket.TextMessage, wt.frame); err != nil {
		log.Info().Err(err).Str("session", wt.session.id).Msg("dropping feed client")
		s.dropSession(wt.session.id)
	}
	return nil
}

// snapshotSessions copies the session table so the broadcast loop never holds
// the session lock across channel sends.
func (s *Server) snapshotSessions() []clientSession {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()

	out := make([]clientSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

func (s *Server) addSession(session clientSession) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()

	s.sessions[session.id] = session
	metrics.Get().FeedClients.Set(float64(len(s.sessions)))
}

func (s *Server) dropSession(id string) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return
	}
	session.conn.Close()
	delete(s.sessions, id)
	metrics.Get().FeedClients.Set(float64(len(s.sessions)))
}

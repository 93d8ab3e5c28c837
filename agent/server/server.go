package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

// Controller is the part of the conversation driver exposed over HTTP.
type Controller interface {
	Start(ctx context.Context) error
	Pause()
	Resume(ctx context.Context) error
	Stop()
	Reset()
	State() contractx.ConversationState
	Persona() contractx.Persona
	UserID() string
}

// Server exposes simulation control and an event stream. Start and Resume
// run the loop in the background under the server's own context, so a
// request returning does not cancel the conversation.
type Server struct {
	ctrl          Controller
	hub           *Hub
	allowedOrigin string

	runCtx context.Context
	wg     sync.WaitGroup
}

func New(runCtx context.Context, ctrl Controller, hub *Hub, allowedOrigin string) *Server {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &Server{ctrl: ctrl, hub: hub, allowedOrigin: allowedOrigin, runCtx: runCtx}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api/simulation", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/pause", s.handlePause)
		r.Post("/resume", s.handleResume)
		r.Post("/stop", s.handleStop)
		r.Post("/reset", s.handleReset)
		r.Get("/state", s.handleState)
		r.Get("/persona", s.handlePersona)
	})
	r.Get("/ws/simulation", s.handleStream)

	return r
}

// Wait blocks until background conversation loops have returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

type stateResponse struct {
	contractx.ConversationState
	UserID string `json:"user_id"`
}

func (s *Server) state() stateResponse {
	return stateResponse{ConversationState: s.ctrl.State(), UserID: s.ctrl.UserID()}
}

func (s *Server) background(name string, run func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := run(s.runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("op", name).Msg("simulation loop ended with error")
		}
	}()
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if s.ctrl.State().IsActive {
		writeJSON(w, http.StatusOK, s.state())
		return
	}
	s.background("start", s.ctrl.Start)
	writeJSON(w, http.StatusAccepted, s.state())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Pause()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.State()
	if !st.IsActive || !st.IsPaused {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "simulation is not paused"})
		return
	}
	s.background("resume", s.ctrl.Resume)
	writeJSON(w, http.StatusAccepted, s.state())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Stop()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handlePersona(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Persona())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if s.allowedOrigin == "*" {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = []string{s.allowedOrigin}
	}

	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket accept failed")
		return
	}
	defer ws.CloseNow()

	events, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	// Nothing is read from clients; CloseRead notices when they go away.
	ctx := ws.CloseRead(r.Context())

	if err := wsjson.Write(ctx, ws, map[string]any{"type": "state", "state": s.state()}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				if s.hub.Closed() {
					ws.Close(websocket.StatusGoingAway, "server shutting down")
				} else {
					ws.Close(websocket.StatusTryAgainLater, "lagging behind, resync from /api/simulation/state")
				}
				return
			}
			if err := wsjson.Write(ctx, ws, ev); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response failed")
	}
}

package server

import (
	"bgarena/communication"
	"bgarena/gamemaster"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Factory creates the engine backing one connection.
type Factory func() gamemaster.Engine

type Option func(s *Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server hosts engines over websocket. Every connection gets its own engine,
// so concurrent games never share state.
type Server struct {
	factory  Factory
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	http     *http.Server
}

func New(factory Factory, opts ...Option) *Server {
	s := &Server{
		factory: factory,
		logger:  zerolog.Nop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		mux: http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("/engine", s.handleEngine)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.http = &http.Server{Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("engine server failed: %w", err)
	}
	s.logger.Info().Msgf("engine server listening on %s", ln.Addr())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("engine server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleEngine(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	engine := s.factory()
	ctx := r.Context()
	s.logger.Debug().Msgf("engine session opened for %s", r.RemoteAddr)
	for {
		var req communication.Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Msg("engine session read failed")
			}
			break
		}
		resp := dispatch(ctx, engine, req)
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn().Err(err).Msg("engine session write failed")
			break
		}
	}
	s.logger.Debug().Msgf("engine session closed for %s", r.RemoteAddr)
}

func dispatch(ctx context.Context, engine gamemaster.Engine, req communication.Request) communication.Response {
	payload, err := execute(ctx, engine, req)
	if err != nil {
		return communication.ErrorResponse(req.ID, err)
	}
	resp, err := communication.ResultResponse(req.ID, payload)
	if err != nil {
		return communication.ErrorResponse(req.ID, err)
	}
	return resp
}

func execute(ctx context.Context, engine gamemaster.Engine, req communication.Request) (any, error) {
	switch req.Type {
	case communication.Ping:
		return nil, nil
	case communication.NewGame:
		return nil, engine.NewGame(ctx)
	case communication.SetPlayerHuman:
		var p communication.SeatPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return nil, engine.SetPlayerHuman(ctx, p.Seat)
	case communication.Roll:
		return nil, engine.Roll(ctx)
	case communication.Move:
		var p communication.MovePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return nil, engine.Move(ctx, p.Move)
	case communication.AutoPlay:
		return nil, engine.AutoPlay(ctx)
	case communication.QueryPosition:
		return engine.Position(ctx)
	case communication.QueryHints:
		return engine.Hints(ctx)
	case communication.QueryPipCount:
		pips, err := engine.PipCount(ctx)
		return communication.PipCountPayload{Pips: pips}, err
	case communication.QueryMatchResult:
		winner, err := engine.MatchResult(ctx)
		return communication.MatchResultPayload{Winner: winner}, err
	default:
		return nil, fmt.Errorf("%w: %q", communication.ErrUnknownCommand, req.Type)
	}
}

// Package console is an operator console: a JWT-gated WebSocket endpoint
// that marshals set/remove/list/find/clear requests onto the Scheduler's
// external interface (spec.md §6). It is a convenience harness for driving
// the core by hand — not "the text protocol parser", which stays an
// external collaborator the scheduler core never imports.
//
// Grounded on go-server/pkg/websocket/client.go's connection-handling shape
// and go-server/internal/auth/jwt.go's WebSocketAuth gate.
package console

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/odin-broadcast/amcp-scheduler/internal/auth"
	"github.com/odin-broadcast/amcp-scheduler/internal/command"
	"github.com/odin-broadcast/amcp-scheduler/internal/scheduler"
	"github.com/odin-broadcast/amcp-scheduler/internal/slot"
	"github.com/odin-broadcast/amcp-scheduler/internal/timecode"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Request is one operator command sent over the console connection.
type Request struct {
	Op      string          `json:"op"` // set, remove, clear, list, find
	Channel int             `json:"channel,omitempty"`
	Token   string          `json:"token,omitempty"`
	Frames  int64           `json:"frames,omitempty"`
	FPS     string          `json:"fps,omitempty"`
	Command json.RawMessage `json:"command,omitempty"`
}

// EntryWire mirrors slot.TokenEntry for the wire.
type EntryWire struct {
	Token  string `json:"token"`
	Frames int64  `json:"frames"`
	FPS    string `json:"fps"`
}

// Response answers one Request.
type Response struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Removed bool            `json:"removed,omitempty"`
	Found   bool            `json:"found,omitempty"`
	Frames  int64           `json:"frames,omitempty"`
	FPS     string          `json:"fps,omitempty"`
	Command json.RawMessage `json:"command,omitempty"`
	Entries []EntryWire     `json:"entries,omitempty"`
}

// Server serves the operator console over WebSocket.
type Server struct {
	addr    string
	sched   *scheduler.Scheduler
	authMgr *auth.Manager
	logger  zerolog.Logger
	http    *http.Server
}

// NewServer builds a console Server bound to addr.
func NewServer(addr string, sched *scheduler.Scheduler, authMgr *auth.Manager, logger zerolog.Logger) *Server {
	s := &Server{addr: addr, sched: sched, authMgr: authMgr, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/console", s.handleUpgrade)
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe blocks serving the console until the listener errors or
// Shutdown is called.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown closes the console's HTTP server at once (http.Server.Close); it
// does not wait for in-flight requests to finish.
func (s *Server) Shutdown() error {
	return s.http.Close()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authMgr.WebSocketAuth(r)
	if err != nil {
		http.Error(w, "unauthorized: "+err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("console: upgrade failed")
		return
	}
	defer conn.Close()

	log := s.logger.With().Str("operator", claims.OperatorID).Logger()
	log.Info().Msg("console: operator connected")
	conn.SetReadLimit(maxMessageSize)

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("console: connection error")
			}
			return
		}

		resp := s.dispatch(req)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn().Err(err).Msg("console: write failed")
			return
		}
	}
}

func (s *Server) dispatch(req Request) Response {
	switch req.Op {
	case "set":
		return s.doSet(req)
	case "remove":
		ok := s.sched.Remove(req.Token)
		return Response{OK: true, Removed: ok}
	case "clear":
		s.sched.Clear()
		return Response{OK: true}
	case "list":
		return s.doList(req)
	case "find":
		return s.doFind(req)
	default:
		return Response{OK: false, Error: "unknown op: " + req.Op}
	}
}

func (s *Server) doSet(req Request) Response {
	fps, err := timecode.ParseFPS(req.FPS)
	if err != nil {
		return Response{OK: false, Error: err.Error()}
	}
	if req.Channel < 0 || req.Channel >= s.sched.ChannelCount() {
		return Response{OK: false, Error: "channel out of range"}
	}
	tc := timecode.New(req.Frames, fps)
	var payload command.Ref = []byte(req.Command)
	s.sched.Set(req.Channel, req.Token, tc, payload)
	return Response{OK: true}
}

func (s *Server) doList(req Request) Response {
	filter := timecode.Empty()
	if req.FPS != "" {
		fps, err := timecode.ParseFPS(req.FPS)
		if err != nil {
			return Response{OK: false, Error: err.Error()}
		}
		filter = timecode.New(req.Frames, fps)
	}
	entries := s.sched.List(filter)
	return Response{OK: true, Entries: toWire(entries)}
}

func (s *Server) doFind(req Request) Response {
	tc, cmd, found := s.sched.Find(req.Token)
	resp := Response{OK: true, Found: found}
	if !found {
		return resp
	}
	resp.Frames = tc.Frames()
	resp.FPS = tc.FPS().String()
	if raw, ok := cmd.([]byte); ok {
		resp.Command = raw
	}
	return resp
}

func toWire(entries []slot.TokenEntry) []EntryWire {
	out := make([]EntryWire, len(entries))
	for i, e := range entries {
		out[i] = EntryWire{Token: e.Token, Frames: e.Timecode.Frames(), FPS: e.Timecode.FPS().String()}
	}
	return out
}

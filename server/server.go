// Package server exposes the assistant over HTTP and WebSocket. This layer
// is thin plumbing: request validation, CORS, and JSON framing around the
// qa engine and the session lifecycle operations.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Answerer is the single entry point of the answer orchestrator.
type Answerer interface {
	Answer(ctx context.Context, question, sessionID string) string
}

// SessionResetter exposes the session lifecycle operations the reset
// endpoint needs.
type SessionResetter interface {
	Wipe(sessionID string)
	Drop(sessionID string)
}

// Server routes HTTP and WebSocket traffic to the engine.
type Server struct {
	engine         Answerer
	sessions       SessionResetter
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// New creates a server. allowedOrigins follows the original deployment
// contract: empty or ["*"] allows every origin, otherwise it is an exact
// allow-list.
func New(engine Answerer, sessions SessionResetter, allowedOrigins []string) *Server {
	s := &Server{
		engine:         engine,
		sessions:       sessions,
		allowedOrigins: allowedOrigins,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
	return s
}

// Handler returns the routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /ws", s.handleWS)
	return s.cors(mux)
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("[SERVER] Listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "the 'question' field is required"})
		return
	}

	requestID := uuid.New().String()
	log.Printf("[SERVER] %s ask session=%q", requestID, req.SessionID)

	answer := s.engine.Answer(r.Context(), question, req.SessionID)
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
	// Mode is "wipe" (default: keep the id, clear the content) or "drop"
	// (remove the session entirely).
	Mode string `json:"mode"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "the 'session_id' field is required"})
		return
	}

	if req.Mode == "drop" {
		s.sessions.Drop(req.SessionID)
	} else {
		s.sessions.Wipe(req.SessionID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type wsMessage struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type wsReply struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleWS runs a chat loop over one WebSocket connection: each inbound
// question produces exactly one reply frame.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.New().String()
	log.Printf("[SERVER] %s WebSocket connected", connID)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("[SERVER] %s WebSocket closed: %v", connID, err)
			return
		}

		question := strings.TrimSpace(msg.Question)
		if question == "" {
			if err := conn.WriteJSON(wsReply{Error: "the 'question' field is required"}); err != nil {
				return
			}
			continue
		}

		answer := s.engine.Answer(r.Context(), question, msg.SessionID)
		if err := conn.WriteJSON(wsReply{Answer: answer}); err != nil {
			return
		}
	}
}

// cors applies the allow-list to every response and short-circuits
// preflight requests.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			if s.allowAll() {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowAll() bool {
	if len(s.allowedOrigins) == 0 {
		return true
	}
	for _, o := range s.allowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) originAllowed(origin string) bool {
	if s.allowAll() {
		return true
	}
	for _, o := range s.allowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[SERVER] Failed to encode response: %v", err)
	}
}

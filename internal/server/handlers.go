package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/arogoat/dubmaster-server/internal/analytics"
	"github.com/arogoat/dubmaster-server/internal/db"
	"github.com/arogoat/dubmaster-server/internal/events"
	"github.com/arogoat/dubmaster-server/internal/lobbies"
	"github.com/arogoat/dubmaster-server/internal/voice"
	"github.com/arogoat/dubmaster-server/internal/wshub"
)

type Server struct {
	Hub      *wshub.Hub
	Registry *lobbies.Registry
	Bus      *events.Bus
	Voice    *voice.Client
	DB       *db.DB // nil if no database configured
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}

	connID := uuid.New().String()
	client := &wshub.Client{
		ConnID: connID,
		Conn:   conn,
		Send:   make(chan []byte, 32),
	}
	s.Hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	log.Printf("[WS] User connected: %s\n", connID)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[WS] Bad envelope from %s: %v\n", connID, err)
			continue
		}
		s.Dispatch(connID, env)
	}

	s.Registry.Disconnect(connID)
	s.Hub.Unregister(connID)
	conn.Close(websocket.StatusNormalClosure, "")
	log.Printf("[WS] User disconnected: %s\n", connID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status = "db_error"
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"%s","error":"%s"}`, status, err.Error())
			return
		}
	}
	fmt.Fprintf(w, `{"status":"%s"}`, status)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "analytics unavailable without database", http.StatusServiceUnavailable)
		return
	}
	q := analytics.NewQueries(s.DB)
	entries, err := q.GetLeaderboard(20)
	if err != nil {
		log.Printf("[Analytics] GetLeaderboard error: %v\n", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		log.Println(err)
	}
}

func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "analytics unavailable without database", http.StatusServiceUnavailable)
		return
	}
	q := analytics.NewQueries(s.DB)
	games, err := q.GetRecentGames(20)
	if err != nil {
		log.Printf("[Analytics] GetRecentGames error: %v\n", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(games); err != nil {
		log.Println(err)
	}
}

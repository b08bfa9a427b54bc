package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop/internal/backend"
)

// ChatRequest is the payload for /api/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// handleChat processes one conversation turn. An omitted session_id starts a
// new session; the generated id comes back in the response so the client can
// continue the conversation.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	mu := s.sessionLock(req.SessionID)
	mu.Lock()
	resp, err := s.orch.HandleMessage(r.Context(), req.SessionID, req.Message, nil)
	mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAPIJSON(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAPIJSON(w, projects)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filter := backend.TaskFilter{
		ProjectID: r.URL.Query().Get("project_id"),
		SprintID:  r.URL.Query().Get("sprint_id"),
		Status:    backend.TaskStatus(r.URL.Query().Get("status")),
	}
	tasks, err := s.store.ListTasks(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAPIJSON(w, tasks)
}

func (s *Server) handleListSprints(w http.ResponseWriter, r *http.Request) {
	sprints, err := s.store.ListSprints(r.URL.Query().Get("project_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeAPIJSON(w, sprints)
}

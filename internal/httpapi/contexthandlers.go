package httpapi

import (
	"net/http"
	"strconv"

	"hearthd/internal/contextengine"
)

// contextErrStatus maps store errors: license denials are 403, the rest 500.
func contextErrStatus(err error) int {
	if contextengine.IsFeatureLocked(err) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "context engine not configured")
		return false
	}
	return true
}

func (s *Server) handleContextQuery(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSONError(w, http.StatusBadRequest, "q is required")
		return
	}
	k, _ := strconv.Atoi(r.URL.Query().Get("k"))
	entries, err := s.store.Retrieve(q, k)
	if err != nil {
		writeJSONError(w, contextErrStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleContextAdd(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req struct {
		Topic   string `json:"topic"`
		Content string `json:"content"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.Topic == "" || req.Content == "" {
		writeJSONError(w, http.StatusBadRequest, "topic and content are required")
		return
	}
	id, err := s.store.AddEntry(req.Topic, req.Content)
	if err != nil {
		writeJSONError(w, contextErrStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleShadowList(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	nodes, err := s.store.OpenShadowNodes()
	if err != nil {
		writeJSONError(w, contextErrStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"open": nodes})
}

func (s *Server) handleShadowAdd(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req struct {
		Description string `json:"description"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.Description == "" {
		writeJSONError(w, http.StatusBadRequest, "description is required")
		return
	}
	id, err := s.store.AddShadowNode(req.Description)
	if err != nil {
		writeJSONError(w, contextErrStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleVisualGet(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	character := r.URL.Query().Get("character")
	if character == "" {
		writeJSONError(w, http.StatusBadRequest, "character is required")
		return
	}
	desc, err := s.store.VisualState(character)
	if err != nil {
		writeJSONError(w, contextErrStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"character": character, "description": desc})
}

func (s *Server) handleVisualSet(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req struct {
		Character   string `json:"character"`
		Description string `json:"description"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.Character == "" {
		writeJSONError(w, http.StatusBadRequest, "character and description are required")
		return
	}
	if err := s.store.SetVisualState(req.Character, req.Description); err != nil {
		writeJSONError(w, contextErrStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

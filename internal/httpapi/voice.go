package httpapi

import (
	"net/http"

	"hearthd/pkg/types"
)

// handleVoice synthesizes one line of speech and streams the wav back.
// Cache hits never touch a model.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if s.voice == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "voice engine not configured")
		return
	}
	var req types.VoiceRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	path, err := s.voice.Synthesize(req.Text, req.Voice)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

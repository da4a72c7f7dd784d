package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"hearthd/internal/contextengine"
	"hearthd/internal/intent"
	"hearthd/internal/license"
	"hearthd/internal/orchestrator"
	"hearthd/internal/proto"
	"hearthd/pkg/types"
)

// handleGenerate is the main writing endpoint. The pipeline is: route the
// intent (commands never wake a model), gate the mode on the license,
// augment the prompt from the series bible, lease the model slot for the
// duration of the call, and exchange exactly one task with the worker.
// If the worker misses the deadline it is presumed wedged and the handler
// escalates to a forced collapse.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	var req types.GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" && len(req.Prompts) == 0 {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	reqID := uuid.NewString()
	lvl := requestLogLevel(r)
	start := time.Now()
	if lvl >= LevelInfo {
		zlog.Info().Str("request_id", reqID).Str("mode", req.Mode).Int("branches", len(req.Prompts)).Msg("generate start")
	}

	// Command routing costs no model time.
	if len(req.Prompts) == 0 {
		in := intent.Parse(req.Prompt, s.lic)
		switch in.Action {
		case intent.ActionStatus:
			writeJSON(w, http.StatusOK, types.GenerateResponse{RequestID: reqID, Action: string(in.Action)})
			return
		case intent.ActionCollapse:
			s.orch.CollapseToZero(false)
			writeJSON(w, http.StatusOK, types.GenerateResponse{RequestID: reqID, Action: string(in.Action), Message: "system is cold"})
			return
		case intent.ActionDenied:
			writeJSONError(w, http.StatusForbidden, in.Message)
			return
		case intent.ActionSwitchMode:
			writeJSON(w, http.StatusOK, types.GenerateResponse{RequestID: reqID, Action: string(in.Action), Mode: in.Mode})
			return
		}
		if req.Mode == "" {
			req.Mode = in.Mode
		}
	}

	if req.Mode == "comic" {
		if acc := s.lic.CheckAccess(license.FeatureComicMode); !acc.Allowed {
			writeJSONError(w, http.StatusForbidden, acc.Message)
			return
		}
	}

	contextBlock, shadowBlock, ok := s.augment(w, req)
	if !ok {
		return
	}

	name := s.modelName(req.Model)
	path := pathFor(s.models, name)
	if path == "" {
		writeJSONError(w, http.StatusNotFound, "unknown model: "+name)
		return
	}

	s.orch.Request(name, req.KeepWarm)
	defer s.orch.Release(name)

	task := proto.Task{
		Type:               proto.TaskGenerate,
		Prompt:             req.Prompt,
		Mode:               req.Mode,
		MaxTokens:          req.MaxTokens,
		Temperature:        req.Temperature,
		ModelPath:          path,
		Context:            contextBlock,
		ShadowNodes:        shadowBlock,
		IncludeShadowNodes: shadowBlock != "",
	}
	if len(req.Prompts) > 0 {
		task.Type = proto.TaskBatchGenerate
		task.Prompt = ""
		task.Prompts = req.Prompts
	}

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	ctx, tcancel := context.WithTimeout(ctx, s.genTimeout)
	defer tcancel()

	res, err := s.orch.Generate(ctx, task)
	if err != nil {
		s.writeGenerateError(w, r, err)
		return
	}

	out := types.GenerateResponse{
		RequestID:  reqID,
		Mode:       req.Mode,
		Message:    res.Error,
		TokensUsed: res.Usage.TotalTokens,
	}
	if task.Type == proto.TaskBatchGenerate {
		for _, br := range res.Results {
			out.Branches = append(out.Branches, br.Output.Text())
		}
	} else {
		out.Text = res.Text()
	}
	if res.Fatal {
		writeJSONError(w, http.StatusInternalServerError, res.Error)
		return
	}
	if lvl >= LevelInfo {
		zlog.Info().Str("request_id", reqID).Dur("dur", time.Since(start)).Int("tokens", out.TokensUsed).Msg("generate end")
	}
	writeJSON(w, http.StatusOK, out)
}

// augment pulls the series-bible block and, when asked, the shadow-node
// block. Answers false when it already wrote an error response.
func (s *Server) augment(w http.ResponseWriter, req types.GenerateRequest) (contextBlock, shadowBlock string, ok bool) {
	if s.store == nil || !req.UseContext {
		return "", "", true
	}
	query := req.Prompt
	if query == "" && len(req.Prompts) > 0 {
		query = req.Prompts[0]
	}
	contextBlock, shadowBlock, err := s.store.AugmentPrompt(query, req.UseShadowNodes)
	if err != nil {
		if contextengine.IsFeatureLocked(err) {
			writeJSONError(w, http.StatusForbidden, err.Error())
			return "", "", false
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return "", "", false
	}
	return contextBlock, shadowBlock, true
}

func (s *Server) writeGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	if orchestrator.IsWorkerTimeout(err) {
		// The exchange was abandoned mid-task (deadline or disconnect):
		// the only safe recovery is killing the worker and letting the
		// next request respawn it, otherwise the task pipe is left with
		// an unconsumed result.
		timeoutCollapsesTotal.Inc()
		zlog.Warn().Msg("generate abandoned mid-task, forcing collapse")
		s.orch.CollapseToZero(true)
		if r.Context().Err() == nil && serverBaseCtx.Err() == nil {
			writeJSONError(w, http.StatusGatewayTimeout, err.Error())
		}
		return
	}
	// Client disconnect or shutdown: nothing sensible to write.
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
		return
	}
	switch {
	case orchestrator.IsWorkerUnavailable(err):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

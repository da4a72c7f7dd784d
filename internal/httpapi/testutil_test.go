package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"hearthd/internal/contextengine"
	"hearthd/internal/license"
	"hearthd/internal/orchestrator"
	"hearthd/internal/proto"
	"hearthd/pkg/types"
)

// fakeOrch records orchestrator interactions and serves canned results.
type fakeOrch struct {
	mu        sync.Mutex
	requests  []string
	releases  []string
	collapses []bool
	lastTask  proto.Task

	result proto.Result
	genErr error
	status types.StatusResponse
}

func (f *fakeOrch) Request(name string, keepWarm bool) *orchestrator.SlotHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, name)
	return &orchestrator.SlotHandle{Name: name}
}

func (f *fakeOrch) Release(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, name)
}

func (f *fakeOrch) Generate(ctx context.Context, task proto.Task) (proto.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTask = task
	return f.result, f.genErr
}

func (f *fakeOrch) Reload(ctx context.Context, modelPath string) (proto.Result, error) {
	return proto.Result{Status: "model_reloaded", Path: modelPath}, nil
}

func (f *fakeOrch) Status() types.StatusResponse { return f.status }

func (f *fakeOrch) CollapseToZero(force bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collapses = append(f.collapses, force)
}

func (f *fakeOrch) task() proto.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastTask
}

// fakeStore serves canned bible content.
type fakeStore struct {
	augmentErr error
}

func (f *fakeStore) AddEntry(topic, content string) (int64, error) { return 1, nil }

func (f *fakeStore) Retrieve(query string, k int) ([]contextengine.Entry, error) {
	return []contextengine.Entry{{ID: 1, Topic: "Mara", Content: "distrusts the guild", Score: 0.9}}, nil
}

func (f *fakeStore) AddShadowNode(description string) (int64, error) { return 2, nil }
func (f *fakeStore) OpenShadowNodes() ([]string, error)              { return []string{"the locket"}, nil }

func (f *fakeStore) AugmentPrompt(query string, includeShadowNodes bool) (string, string, error) {
	if f.augmentErr != nil {
		return "", "", f.augmentErr
	}
	shadow := ""
	if includeShadowNodes {
		shadow = "the locket"
	}
	return "Mara: distrusts the guild", shadow, nil
}

func (f *fakeStore) SetVisualState(character, description string) error { return nil }
func (f *fakeStore) VisualState(character string) (string, error)       { return "sling", nil }

type fakeVoice struct{ path string }

func (f *fakeVoice) Synthesize(text, voice string) (string, error) { return f.path, nil }

var testModels = []types.Model{
	{ID: "mistral-7b-quantized", Name: "mistral-7b-quantized", Path: "/models/mistral.gguf", MemoryMB: 4096},
	{ID: "all-MiniLM-L6-v2", Name: "all-MiniLM-L6-v2", Path: "/models/minilm.gguf", MemoryMB: 256},
}

func newTestServer(t *testing.T, key string, orch *fakeOrch) *httptest.Server {
	t.Helper()
	mux := NewMux(Config{
		Orchestrator: orch,
		Models:       testModels,
		License:      license.New(key),
		Context:      &fakeStore{},
		DefaultModel: "mistral-7b-quantized",
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

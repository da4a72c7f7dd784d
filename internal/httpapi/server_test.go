package httpapi

import (
	"io"
	"net/http"
	"testing"

	"hearthd/pkg/types"
)

func TestStatusEndpoint(t *testing.T) {
	orch := &fakeOrch{status: types.StatusResponse{LicenseTier: "base", MaxConcurrent: 1}}
	srv := newTestServer(t, "", orch)

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	st := decodeJSON[types.StatusResponse](t, resp)
	if st.LicenseTier != "base" || st.MaxConcurrent != 1 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestModelsEndpoint(t *testing.T) {
	srv := newTestServer(t, "", &fakeOrch{})
	resp, err := http.Get(srv.URL + "/api/models")
	if err != nil {
		t.Fatalf("get models: %v", err)
	}
	defer resp.Body.Close()
	out := decodeJSON[struct {
		Models []types.Model `json:"models"`
	}](t, resp)
	if len(out.Models) != 2 || out.Models[0].ID != "mistral-7b-quantized" {
		t.Fatalf("unexpected models: %+v", out.Models)
	}
}

func TestCollapseEndpoint(t *testing.T) {
	orch := &fakeOrch{}
	srv := newTestServer(t, "", orch)

	resp := postJSON(t, srv.URL+"/api/collapse?force=1", map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if len(orch.collapses) != 1 || !orch.collapses[0] {
		t.Fatalf("expected one forced collapse, got %v", orch.collapses)
	}
}

func TestReloadUnknownModel(t *testing.T) {
	srv := newTestServer(t, "", &fakeOrch{})
	resp := postJSON(t, srv.URL+"/api/reload", map[string]string{"model": "ghost"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, "", &fakeOrch{})
	for path, want := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(body) != want {
			t.Fatalf("%s: got %d %q", path, resp.StatusCode, body)
		}
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv := newTestServer(t, "", &fakeOrch{})
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
}

func TestContextEndpoints(t *testing.T) {
	srv := newTestServer(t, "HEARTH_PRO_x", &fakeOrch{})

	resp, err := http.Get(srv.URL + "/api/context?q=guild")
	if err != nil {
		t.Fatalf("get context: %v", err)
	}
	defer resp.Body.Close()
	out := decodeJSON[struct {
		Entries []struct {
			Topic string `json:"topic"`
		} `json:"entries"`
	}](t, resp)
	if len(out.Entries) != 1 || out.Entries[0].Topic != "Mara" {
		t.Fatalf("unexpected entries: %+v", out.Entries)
	}

	if resp := postJSON(t, srv.URL+"/api/context", map[string]string{"topic": "t", "content": "c"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("add entry: expected 201 got %d", resp.StatusCode)
	}
	if resp := postJSON(t, srv.URL+"/api/context", map[string]string{"topic": ""}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty entry: expected 400 got %d", resp.StatusCode)
	}
	if resp := postJSON(t, srv.URL+"/api/context/shadow", map[string]string{"description": "d"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("add shadow: expected 201 got %d", resp.StatusCode)
	}
}

func TestVoiceEndpointUnconfigured(t *testing.T) {
	srv := newTestServer(t, "", &fakeOrch{})
	resp := postJSON(t, srv.URL+"/api/voice", map[string]string{"text": "hello"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.StatusCode)
	}
}

package types

// Model describes one entry in the local model registry.
type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	MemoryMB int    `json:"memory_mb"`
}

// GenerateRequest is the payload accepted by POST /api/generate.
// When Prompts is non-empty the request is treated as a batch and
// Prompt is ignored.
type GenerateRequest struct {
	Model          string   `json:"model,omitempty"`
	Prompt         string   `json:"prompt,omitempty"`
	Prompts        []string `json:"prompts,omitempty"`
	Mode           string   `json:"mode,omitempty"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	Temperature    float32  `json:"temperature,omitempty"`
	KeepWarm       bool     `json:"keep_warm,omitempty"`
	UseContext     bool     `json:"use_context,omitempty"`
	UseShadowNodes bool     `json:"use_shadow_nodes,omitempty"`
}

// GenerateResponse is the payload returned by POST /api/generate. For
// routed commands (mode switches, status requests, license denials) Action
// and Message are set and Text stays empty.
type GenerateResponse struct {
	RequestID  string   `json:"request_id"`
	Text       string   `json:"text,omitempty"`
	Branches   []string `json:"branches,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Action     string   `json:"action,omitempty"`
	Message    string   `json:"message,omitempty"`
	TokensUsed int      `json:"tokens_used,omitempty"`
}

// VoiceRequest is the payload accepted by POST /api/voice.
type VoiceRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// ErrorResponse is the uniform JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// SlotStatus is the projection of one non-cold model slot.
type SlotStatus struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	MemoryMB int    `json:"memory_mb"`
}

// StatusResponse is the orchestrator snapshot served on /api/status.
type StatusResponse struct {
	WorkerAlive      bool         `json:"worker_alive"`
	ActiveModels     []SlotStatus `json:"active_models"`
	ActiveLocks      []string     `json:"active_locks"`
	MaxConcurrent    int          `json:"max_concurrent"`
	LicenseTier      string       `json:"license_tier"`
	UnlockedFeatures []string     `json:"unlocked_features"`
}

// Package proto defines the message contract between the orchestrator and
// the inference worker process: a closed set of task kinds flowing in on
// the worker's stdin and result shapes flowing out on its stdout, one JSON
// document per line.
package proto

// TaskType enumerates every message the worker accepts. The set is closed:
// unknown types yield an error result, never a crash.
type TaskType string

const (
	TaskGenerate      TaskType = "generate"
	TaskBatchGenerate TaskType = "batch_generate"
	TaskReloadModel   TaskType = "reload_model"
	TaskStatus        TaskType = "status"
	TaskPoisonPill    TaskType = "poison_pill"
)

// Task is a single instruction for the worker. Fields are populated
// according to Type; unused fields stay zero.
type Task struct {
	Type TaskType `json:"type"`

	Prompt  string   `json:"prompt,omitempty"`
	Prompts []string `json:"prompts,omitempty"`

	Mode        string  `json:"mode,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`

	GrammarPath string `json:"grammar_path,omitempty"`
	ModelPath   string `json:"model_path,omitempty"`

	// Retrieved context and privileged shadow-node blocks, already
	// assembled by the caller. ShadowNodes is only woven into the prompt
	// when IncludeShadowNodes is set.
	Context            string `json:"context,omitempty"`
	ShadowNodes        string `json:"shadow_nodes,omitempty"`
	IncludeShadowNodes bool   `json:"include_shadow_nodes,omitempty"`
}

// Choice is one generated completion.
type Choice struct {
	Text string `json:"text"`
}

// Usage carries token accounting for a completed generation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// BranchResult is one element of a batch generation, tagged with its
// input position.
type BranchResult struct {
	Branch int    `json:"branch"`
	Prompt string `json:"prompt"`
	Output Result `json:"output"`
}

// Result is the worker's reply to a task. Exactly one shape is populated:
// choices+usage for generations, Results for batches, Status fields for
// probes and reload acks, Error for failures. Fatal marks a terminal
// startup failure after which the worker must be considered dead.
type Result struct {
	Type    string   `json:"type,omitempty"`
	Choices []Choice `json:"choices,omitempty"`
	Usage   Usage    `json:"usage,omitempty"`

	Results []BranchResult `json:"results,omitempty"`

	Status      string `json:"status,omitempty"`
	ModelLoaded bool   `json:"model_loaded,omitempty"`
	CurrentModel string `json:"current_model,omitempty"`
	Path        string `json:"path,omitempty"`

	Error string `json:"error,omitempty"`
	Fatal bool   `json:"fatal,omitempty"`
}

// Text returns the first choice's text, or "" when there is none.
func (r Result) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Text
}

// ErrorResult builds a failure reply carrying degraded choice text so
// callers always have something renderable.
func ErrorResult(msg string) Result {
	return Result{
		Error:   msg,
		Choices: []Choice{{Text: "Generation failed: " + msg}},
	}
}

//go:build llama

package worker

// cgo link directives for the in-process llama backend.
// - $ORIGIN rpath so the runtime loader finds libllama.so next to the
//   built binary (./bin).
// - -L${SRCDIR}/../../bin so the linker finds libllama.so when building
//   the 'llama' variant.

/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"

import (
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"hearthd/internal/proto"
)

// llamaRuntime loads gguf models in-process through go-llama.cpp.
type llamaRuntime struct {
	ctxSize int
	threads int
}

// NewRuntime returns the llama.cpp-backed runtime.
func NewRuntime(ctxSize, threads int) Runtime {
	if ctxSize <= 0 {
		ctxSize = 2048
	}
	if threads <= 0 {
		threads = 4
	}
	return &llamaRuntime{ctxSize: ctxSize, threads: threads}
}

type llamaModel struct {
	model   *llama.LLama
	threads int
}

func (rt *llamaRuntime) Load(modelPath string) (Model, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(modelPath, llama.SetContext(rt.ctxSize))
	if err != nil {
		return nil, err
	}
	return &llamaModel{model: m, threads: rt.threads}, nil
}

func (lm *llamaModel) Generate(prompt string, opts GenOpts) (string, proto.Usage, error) {
	if lm.model == nil {
		return "", proto.Usage{}, errors.New("llama model not initialized")
	}
	po := []llama.PredictOption{
		llama.SetTokens(maxInt(1, opts.MaxTokens)),
		llama.SetThreads(maxInt(1, lm.threads)),
	}
	if opts.Temperature > 0 {
		po = append(po, llama.SetTemperature(opts.Temperature))
	}
	if len(opts.Stop) > 0 {
		po = append(po, llama.SetStopWords(opts.Stop...))
	}
	text, err := lm.model.Predict(prompt, po...)
	if err != nil {
		return "", proto.Usage{}, err
	}
	// Token counts are not exposed without deeper hooks; approximate the
	// completion side from whitespace-separated tokens.
	n := len(strings.Fields(text))
	return text, proto.Usage{CompletionTokens: n, TotalTokens: n}, nil
}

func (lm *llamaModel) Close() error {
	if lm.model != nil {
		lm.model.Free()
		lm.model = nil
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

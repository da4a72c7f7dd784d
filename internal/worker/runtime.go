package worker

import "hearthd/internal/proto"

// GenOpts captures the sampling parameters for one generation.
type GenOpts struct {
	MaxTokens   int
	Temperature float32
	Stop        []string
	// GrammarPath points at a gbnf constraint file, already validated to
	// exist. Empty means unconstrained generation.
	GrammarPath string
}

// Runtime abstracts the inference backend. Concrete implementations load
// model weights from a file path and hand back a generation-capable Model.
type Runtime interface {
	Load(modelPath string) (Model, error)
}

// Model is one loaded set of weights.
type Model interface {
	Generate(prompt string, opts GenOpts) (string, proto.Usage, error)
	Close() error
}

// runtimeUnavailableError signals the binary was built without an
// inference backend.
type runtimeUnavailableError struct{ msg string }

func (e runtimeUnavailableError) Error() string { return e.msg }

// ErrRuntimeUnavailable constructs a runtimeUnavailableError.
func ErrRuntimeUnavailable(msg string) error { return runtimeUnavailableError{msg: msg} }

// IsRuntimeUnavailable reports whether err indicates a missing inference
// backend.
func IsRuntimeUnavailable(err error) bool {
	_, ok := err.(runtimeUnavailableError)
	return ok
}

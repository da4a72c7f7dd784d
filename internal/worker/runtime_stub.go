//go:build !llama

package worker

// No-CGO stub compiled when the 'llama' build tag is not set, keeping
// default builds and CI CGO-free. It refuses to load rather than mock
// inference in production binaries.

// NewRuntime returns a runtime that fails fast: llama support was not
// built into this binary.
func NewRuntime(ctxSize, threads int) Runtime {
	return stubRuntime{}
}

type stubRuntime struct{}

func (stubRuntime) Load(modelPath string) (Model, error) {
	return nil, ErrRuntimeUnavailable("llama support not built (missing 'llama' build tag)")
}

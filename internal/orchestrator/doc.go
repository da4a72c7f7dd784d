// Package orchestrator manages the lifecycle of heavyweight local models:
// lazy loading, safe sharing across concurrent requests, LRU eviction under
// the tier-derived concurrency limit, and execution in an isolated worker
// process so a stalled or crashed inference never takes down the serving
// process. It is structured into small files by concern:
//
//   - types.go: slot record and lifecycle states.
//   - orchestrator.go: core type, Config, constructor.
//   - request.go: Request/Release admission and LRU eviction.
//   - sweep.go: idle-timeout sweep and the periodic sweeper.
//   - generate.go: worker exchange (Generate, Reload, Probe) and
//     CollapseToZero.
//   - worker_handle.go: the Worker handle contract and the exec-backed
//     subprocess implementation.
//   - status.go: read-only snapshot for /api/status.
//   - errors.go: typed errors and Is* helpers.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: prometheus collectors.
//
// All mutating operations are serialized under one mutex; partial updates
// (a warm slot without its lock mark) are never observable. Concurrent
// generations are serialized at the task queue: the worker processes tasks
// strictly in submission order and results are correlated FIFO.
package orchestrator

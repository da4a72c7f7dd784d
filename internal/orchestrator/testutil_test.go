package orchestrator

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hearthd/internal/license"
	"hearthd/internal/proto"
	"hearthd/internal/worker"
)

// fakeClock lets tests advance idle time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// echoRuntime satisfies worker.Runtime with canned generations.
type echoRuntime struct{}

func (echoRuntime) Load(path string) (worker.Model, error) { return echoModel{}, nil }

type echoModel struct{}

func (echoModel) Generate(prompt string, opts worker.GenOpts) (string, proto.Usage, error) {
	return prompt, proto.Usage{CompletionTokens: 1, TotalTokens: 1}, nil
}
func (echoModel) Close() error { return nil }

// blockingRuntime parks every generation until released, to simulate a
// stalled inference.
type blockingRuntime struct {
	release chan struct{}
	started chan struct{}
}

func newBlockingRuntime() *blockingRuntime {
	return &blockingRuntime{release: make(chan struct{}), started: make(chan struct{}, 16)}
}

func (b *blockingRuntime) Load(path string) (worker.Model, error) {
	return blockingModel{rt: b}, nil
}

type blockingModel struct{ rt *blockingRuntime }

func (m blockingModel) Generate(prompt string, opts worker.GenOpts) (string, proto.Usage, error) {
	m.rt.started <- struct{}{}
	<-m.rt.release
	return prompt, proto.Usage{}, nil
}
func (m blockingModel) Close() error { return nil }

// pipeWorker runs the real worker loop in-process over pipes, exercising
// the wire protocol end to end without spawning a subprocess.
type pipeWorker struct {
	tasks   *proto.TaskWriter
	results *proto.ResultReader
	taskW   *io.PipeWriter
	resR    *io.PipeReader

	sendMu sync.Mutex
	done   chan struct{}
}

func newPipeFactory(rt worker.Runtime, modelPath string) Factory {
	return func() (Worker, error) {
		taskR, taskW := io.Pipe()
		resR, resW := io.Pipe()
		r := worker.New(rt, worker.Config{DefaultModelPath: modelPath, Logger: zerolog.Nop()})
		w := &pipeWorker{
			tasks:   proto.NewTaskWriter(taskW),
			results: proto.NewResultReader(resR),
			taskW:   taskW,
			resR:    resR,
			done:    make(chan struct{}),
		}
		go func() {
			_ = r.Run(taskR, resW)
			_ = resW.Close()
			close(w.done)
		}()
		return w, nil
	}
}

func (w *pipeWorker) Send(t proto.Task) error {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	return w.tasks.Write(t)
}

func (w *pipeWorker) Recv() (proto.Result, error) { return w.results.Read() }

func (w *pipeWorker) Alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

func (w *pipeWorker) Terminate(grace time.Duration, force bool) error {
	if !w.Alive() {
		return nil
	}
	if !force {
		// io.Pipe writes are synchronous; deliver the pill from a
		// goroutine so a stuck worker cannot wedge Terminate itself.
		go func() {
			w.sendMu.Lock()
			defer w.sendMu.Unlock()
			_ = w.tasks.Write(proto.Task{Type: proto.TaskPoisonPill})
			_ = w.taskW.Close()
		}()
		select {
		case <-w.done:
			return nil
		case <-time.After(grace):
		}
	}
	// Hard stop: tear both pipes down.
	_ = w.taskW.CloseWithError(io.ErrClosedPipe)
	_ = w.resR.CloseWithError(io.ErrClosedPipe)
	return nil
}

// deadWorker fails every interaction, simulating a crash mid-task.
type deadWorker struct{}

func (deadWorker) Send(proto.Task) error               { return nil }
func (deadWorker) Recv() (proto.Result, error)         { return proto.Result{}, io.EOF }
func (deadWorker) Alive() bool                         { return true }
func (deadWorker) Terminate(time.Duration, bool) error { return nil }

func createModelFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("weights"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return p
}

// newTestOrchestrator wires an orchestrator around the in-process pipe
// worker with a controllable clock.
func newTestOrchestrator(t *testing.T, key string, rt worker.Runtime, modelPath string) (*Orchestrator, *fakeClock, *MemoryPublisher) {
	t.Helper()
	clock := newFakeClock()
	pub := NewMemoryPublisher()
	cfg := Config{
		License:     license.New(key),
		SpawnWorker: newPipeFactory(rt, modelPath),
		Publisher:   pub,
		Logger:      zerolog.Nop(),
		Clock:       clock.Now,
	}
	if modelPath != "" {
		cfg.ResolvePath = func(string) string { return modelPath }
	}
	o := New(cfg)
	t.Cleanup(func() { o.CollapseToZero(true) })
	return o, clock, pub
}

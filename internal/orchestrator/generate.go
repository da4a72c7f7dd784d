package orchestrator

import (
	"context"
	"time"

	"hearthd/internal/proto"
)

// ensureWorker returns the live worker, spawning one lazily if absent or
// dead. A spawn failure leaves the handle empty so the next call retries.
func (o *Orchestrator) ensureWorker() (Worker, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.worker != nil && o.worker.Alive() && !o.workerPoisoned {
		return o.worker, nil
	}
	if w := o.worker; w != nil {
		// Dead or poisoned handle: kill it so its abandoned reader can
		// never race a fresh exchange on the same result stream.
		go func() { _ = w.Terminate(0, true) }()
	}
	o.worker = nil
	o.workerPoisoned = false
	if o.spawn == nil {
		return nil, ErrWorkerUnavailable("no worker factory configured")
	}
	w, err := o.spawn()
	if err != nil {
		o.log.Error().Err(err).Msg("worker spawn failed")
		o.pub.Publish(Event{Name: "worker_spawn_failed", Fields: map[string]any{"error": err.Error()}})
		return nil, ErrWorkerUnavailable(err.Error())
	}
	o.worker = w
	workerSpawnsTotal.Inc()
	o.log.Info().Msg("inference worker spawned (hot path activated)")
	o.pub.Publish(Event{Name: "worker_spawned", Fields: map[string]any{}})
	return w, nil
}

// dropWorker clears the handle if it still points at w, so the next use
// respawns lazily. Best-effort reap of the dead process.
func (o *Orchestrator) dropWorker(w Worker) {
	o.mu.Lock()
	if o.worker == w {
		o.worker = nil
	}
	o.mu.Unlock()
	go func() { _ = w.Terminate(0, true) }()
}

// Generate sends a task to the worker and blocks until its result arrives,
// then sweeps idle slots. There is no internal timeout: the caller races
// this against its own deadline. On expiry the worker handle is poisoned
// and replaced before the next exchange, but the stuck process itself
// lingers until the caller escalates to CollapseToZero(force=true).
func (o *Orchestrator) Generate(ctx context.Context, task proto.Task) (proto.Result, error) {
	res, err := o.exchange(ctx, task)
	if err != nil {
		return res, err
	}
	o.SweepIdle()
	return res, nil
}

// Reload asks the worker to drop and reload model weights, e.g. when
// switching a fine-tuned variant.
func (o *Orchestrator) Reload(ctx context.Context, modelPath string) (proto.Result, error) {
	return o.exchange(ctx, proto.Task{Type: proto.TaskReloadModel, ModelPath: modelPath})
}

// Probe performs a liveness round-trip through the worker.
func (o *Orchestrator) Probe(ctx context.Context) (proto.Result, error) {
	return o.exchange(ctx, proto.Task{Type: proto.TaskStatus})
}

func (o *Orchestrator) exchange(ctx context.Context, task proto.Task) (proto.Result, error) {
	w, err := o.ensureWorker()
	if err != nil {
		return proto.Result{}, err
	}

	o.taskMu.Lock()
	defer o.taskMu.Unlock()

	o.markHot(task.ModelPath)
	defer o.unmarkHot(task.ModelPath)

	start := time.Now()
	if err := w.Send(task); err != nil {
		o.dropWorker(w)
		return proto.Result{}, ErrWorkerUnavailable("send: " + err.Error())
	}

	type reply struct {
		res proto.Result
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		res, err := w.Recv()
		ch <- reply{res: res, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			// Channel closure means the process died mid-task.
			o.dropWorker(w)
			return proto.Result{}, ErrWorkerUnavailable("recv: " + r.err.Error())
		}
		generateDuration.Observe(time.Since(start).Seconds())
		if r.res.Fatal {
			// Terminal startup failure: treat the worker as dead and
			// respawn on next use.
			o.log.Error().Str("error", r.res.Error).Msg("worker reported fatal error")
			o.dropWorker(w)
		}
		return r.res, nil
	case <-ctx.Done():
		// The abandoned receive still owns the result stream; poison the
		// handle so no later exchange reads alongside it.
		o.mu.Lock()
		if o.worker == w {
			o.workerPoisoned = true
		}
		o.mu.Unlock()
		return proto.Result{}, ErrWorkerTimeout()
	}
}

// markHot flips the slot owning modelPath to hot while its task executes.
func (o *Orchestrator) markHot(modelPath string) {
	if modelPath == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.slots {
		if s.path == modelPath && s.state == StateWarm {
			s.state = StateHot
			return
		}
	}
}

func (o *Orchestrator) unmarkHot(modelPath string) {
	if modelPath == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.slots {
		if s.path == modelPath && s.state == StateHot {
			s.state = StateWarm
			return
		}
	}
}

// CollapseToZero returns the system to its minimal idle footprint:
// terminate the worker (grace period, then kill; force skips the grace
// wait), reset every slot to cold, clear all locks. Idempotent, safe from
// shutdown handlers, and never deadlocks on a dead worker.
func (o *Orchestrator) CollapseToZero(force bool) {
	o.mu.Lock()
	w := o.worker
	o.worker = nil
	o.workerPoisoned = false
	for _, s := range o.slots {
		s.state = StateCold
		s.locked = false
	}
	o.updateResidencyMetricLocked()
	o.mu.Unlock()

	if w != nil {
		_ = w.Terminate(o.collapseGrace, force)
	}
	collapsesTotal.Inc()
	o.log.Info().Bool("force", force).Msg("collapse to zero complete, system idle")
	o.pub.Publish(Event{Name: "collapse_complete", Fields: map[string]any{"force": force}})
}

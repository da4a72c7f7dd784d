package orchestrator

import (
	"context"
	"time"
)

// SweepIdle transitions warm and cooling slots that are unlocked, not
// pinned, and idle past the timeout back to cold. Safe to run redundantly
// from both the post-generation hook and the periodic sweeper.
func (o *Orchestrator) SweepIdle() {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, s := range o.slots {
		if s.state != StateWarm && s.state != StateCooling {
			continue
		}
		if s.locked || s.pinned {
			continue
		}
		if now.Sub(s.lastUsed) <= o.idleTimeout {
			continue
		}
		s.state = StateCold
		idleUnloadsTotal.Inc()
		o.log.Info().Str("model", s.name).Dur("idle", now.Sub(s.lastUsed)).Msg("model auto-unloaded (idle)")
		o.pub.Publish(Event{Name: "model_idle_unload", Model: s.name, Fields: map[string]any{}})
	}
	o.updateResidencyMetricLocked()
}

// StartSweeper runs SweepIdle on a fixed interval until ctx is canceled.
func (o *Orchestrator) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				o.SweepIdle()
			}
		}
	}()
}

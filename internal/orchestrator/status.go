package orchestrator

import (
	"sort"

	"hearthd/pkg/types"
)

// Status builds the read-only snapshot served on /api/status: worker
// liveness, non-cold slots, the lock set, the effective concurrency limit,
// and the resolved tier with its unlocked features.
func (o *Orchestrator) Status() types.StatusResponse {
	o.mu.Lock()
	defer o.mu.Unlock()

	resp := types.StatusResponse{
		WorkerAlive:      o.worker != nil && o.worker.Alive(),
		ActiveModels:     make([]types.SlotStatus, 0, len(o.slots)),
		ActiveLocks:      make([]string, 0),
		MaxConcurrent:    o.lic.MaxConcurrentModels(),
		LicenseTier:      string(o.lic.Tier()),
		UnlockedFeatures: o.lic.UnlockedFeatures(),
	}
	for _, s := range o.slots {
		if s.state == StateCold {
			continue
		}
		resp.ActiveModels = append(resp.ActiveModels, types.SlotStatus{
			Name:     s.name,
			State:    string(s.state),
			MemoryMB: s.memoryMB,
		})
		if s.locked {
			resp.ActiveLocks = append(resp.ActiveLocks, s.name)
		}
	}
	sort.Slice(resp.ActiveModels, func(i, j int) bool { return resp.ActiveModels[i].Name < resp.ActiveModels[j].Name })
	sort.Strings(resp.ActiveLocks)
	return resp
}

// SlotState reports the lifecycle state of one slot; cold for unseen names.
func (o *Orchestrator) SlotState(name string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.slots[name]; ok {
		return s.state
	}
	return StateCold
}

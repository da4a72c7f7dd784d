package orchestrator

// Request registers intent to use a model and returns a handle for
// driving generation. Admission never blocks or fails: if admitting a
// cold model would exceed the tier-derived concurrency limit, the single
// least-recently-used unlocked slot is evicted first; if nothing can be
// evicted the request proceeds over the nominal cap.
func (o *Orchestrator) Request(name string, keepWarm bool) *SlotHandle {
	o.mu.Lock()
	defer o.mu.Unlock()

	// The limit always reflects the validator's cached tier; the
	// validator stays the single source of truth.
	o.maxConcurrent = o.lic.MaxConcurrentModels()

	s, ok := o.slots[name]
	if !ok {
		s = &slot{
			name:     name,
			path:     o.resolvePath(name),
			state:    StateCold,
			memoryMB: o.estimateMB(name),
		}
		o.slots[name] = s
	}

	if s.state == StateCold && o.countNonColdLocked() >= o.maxConcurrent {
		o.evictLRULocked()
	}

	s.state = StateWarm
	s.lastUsed = o.now()
	s.pinned = keepWarm
	s.locked = true

	o.updateResidencyMetricLocked()
	o.log.Info().Str("model", name).Bool("keep_warm", keepWarm).Msg("model requested")
	o.pub.Publish(Event{Name: "model_requested", Model: name, Fields: map[string]any{"keep_warm": keepWarm}})
	return &SlotHandle{Name: s.name, Path: s.path}
}

// Release clears the in-use mark. Unpinned slots transition to cooling,
// making them eviction-eligible.
func (o *Orchestrator) Release(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.slots[name]
	if !ok {
		return
	}
	s.locked = false
	if !s.pinned && s.state != StateCold {
		s.state = StateCooling
	}
	s.lastUsed = o.now()
	o.log.Debug().Str("model", name).Msg("lock released")
}

// evictLRULocked reclaims the single unlocked, unpinned resident slot
// with the smallest lastUsed. Ties break on name for determinism. No-op
// when every candidate is in use. Caller holds mu.
func (o *Orchestrator) evictLRULocked() {
	var lru *slot
	for _, s := range o.slots {
		if s.state == StateCold || s.locked || s.pinned {
			continue
		}
		if lru == nil || s.lastUsed.Before(lru.lastUsed) ||
			(s.lastUsed.Equal(lru.lastUsed) && s.name < lru.name) {
			lru = s
		}
	}
	if lru == nil {
		return
	}
	lru.state = StateCold
	evictionsTotal.Inc()
	o.log.Info().Str("model", lru.name).Msg("model evicted (LRU)")
	o.pub.Publish(Event{Name: "model_evicted", Model: lru.name, Fields: map[string]any{}})
}

package orchestrator

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hearthd/internal/license"
	"hearthd/internal/registry"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultIdleTimeout   = 300 * time.Second
	defaultCollapseGrace = 5 * time.Second
)

// Config encapsulates all tunables for Orchestrator construction.
type Config struct {
	License *license.Validator
	// SpawnWorker creates the inference process; see NewExecFactory.
	SpawnWorker Factory
	// ResolvePath maps a model name to its weights file; may return "".
	ResolvePath func(name string) string
	// EstimateMB supplies the static admission estimate for a name.
	EstimateMB func(name string) int

	IdleTimeout   time.Duration
	CollapseGrace time.Duration

	Publisher EventPublisher
	Logger    zerolog.Logger
	// Clock is injectable for idle-timeout tests.
	Clock func() time.Time
}

// Orchestrator supervises the slot table and the worker process.
type Orchestrator struct {
	mu    sync.Mutex
	slots map[string]*slot

	worker Worker
	// workerPoisoned marks a handle whose result stream still has an
	// abandoned reader on it (a caller timed out mid-exchange). The
	// handle must be replaced before the next exchange.
	workerPoisoned bool
	// taskMu serializes callers at the task queue: one in-flight exchange,
	// strict FIFO correlation of results.
	taskMu sync.Mutex

	lic           *license.Validator
	maxConcurrent int

	spawn       Factory
	resolvePath func(string) string
	estimateMB  func(string) int

	idleTimeout   time.Duration
	collapseGrace time.Duration

	pub EventPublisher
	log zerolog.Logger
	now func() time.Time
}

// New constructs an Orchestrator from Config, applying package defaults.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		slots:         make(map[string]*slot),
		lic:           cfg.License,
		spawn:         cfg.SpawnWorker,
		resolvePath:   cfg.ResolvePath,
		estimateMB:    cfg.EstimateMB,
		idleTimeout:   cfg.IdleTimeout,
		collapseGrace: cfg.CollapseGrace,
		pub:           cfg.Publisher,
		log:           cfg.Logger,
		now:           cfg.Clock,
	}
	if o.lic == nil {
		o.lic = license.FromEnv()
	}
	if o.resolvePath == nil {
		o.resolvePath = func(string) string { return "" }
	}
	if o.estimateMB == nil {
		o.estimateMB = func(name string) int { return registry.EstimateMB(name, "") }
	}
	if o.idleTimeout <= 0 {
		o.idleTimeout = defaultIdleTimeout
	}
	if o.collapseGrace <= 0 {
		o.collapseGrace = defaultCollapseGrace
	}
	if o.pub == nil {
		o.pub = noopPublisher{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.maxConcurrent = o.lic.MaxConcurrentModels()
	return o
}

// countNonColdLocked counts resident slots. Caller holds mu.
func (o *Orchestrator) countNonColdLocked() int {
	n := 0
	for _, s := range o.slots {
		if s.state != StateCold {
			n++
		}
	}
	return n
}

func (o *Orchestrator) updateResidencyMetricLocked() {
	residentSlots.Set(float64(o.countNonColdLocked()))
}

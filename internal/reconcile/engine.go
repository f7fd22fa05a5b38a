// Package reconcile implements the debounced polling-reconciliation engine
// that keeps the last-known interface table in step with the host.
//
// All engine state is owned by the goroutine running Engine.Run. Other
// goroutines (signal callbacks, the debounce timer, fetch and probe workers,
// HTTP handlers) only ever post closures into the engine inbox.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/HerbHall/netswitch/internal/debounce"
	"github.com/HerbHall/netswitch/pkg/models"
	"github.com/HerbHall/netswitch/pkg/plugin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrStopped is returned when a request reaches an engine whose Run loop has exited.
var ErrStopped = errors.New("reconcile: engine stopped")

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("reconcile: engine already running")

var errProbeInFlight = errors.New("probe still in flight")

// Fetcher returns the full interface inventory.
type Fetcher interface {
	Fetch(ctx context.Context) ([]models.InterfaceRecord, error)
}

// Prober looks up a single interface by case-insensitive name. It returns
// (nil, nil) when the interface does not exist.
type Prober interface {
	Probe(ctx context.Context, name string) (*models.InterfaceRecord, error)
}

// Enricher fills the optional description, type and ID fields.
type Enricher interface {
	Enrich(ctx context.Context, records []models.InterfaceRecord) []models.InterfaceRecord
}

// Mode is the engine-global refresh mode.
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeRefreshing Mode = "refreshing"
)

// InterfaceState is the per-interface reconciliation state.
type InterfaceState string

const (
	StateStable  InterfaceState = "stable"
	StatePolling InterfaceState = "polling"
)

// Status is a point-in-time copy of the engine state.
type Status struct {
	Mode        Mode                     `json:"mode"`
	Interfaces  []models.InterfaceRecord `json:"interfaces"`
	Polling     []PollEntry              `json:"polling"`
	Deferred    bool                     `json:"deferred"`
	LastError   string                   `json:"last_error,omitempty"`
	LastSettled time.Time                `json:"last_settled,omitempty"`
}

// StateOf returns the reconciliation state of name.
func (s Status) StateOf(name string) InterfaceState {
	k := models.NameKey(name)
	for _, p := range s.Polling {
		if models.NameKey(p.Name) == k {
			return StatePolling
		}
	}
	return StateStable
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnricher sets the enrichment lookup applied to each fetched inventory.
func WithEnricher(en Enricher) Option {
	return func(e *Engine) { e.enricher = en }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// maxConcurrentProbes bounds the probe workers started per tick.
const maxConcurrentProbes = 4

// Engine reconciles change signals with inventory snapshots and publishes
// one settle event per completed cycle.
type Engine struct {
	cfg      Config
	fetcher  Fetcher
	prober   Prober
	enricher Enricher
	bus      plugin.EventBus
	logger   *zap.Logger
	metrics  *Metrics
	now      func() time.Time
	stable   map[models.OperState]bool

	gate    *debounce.Gate
	inbox   chan func()
	done    chan struct{}
	running atomic.Bool

	// Fields below are owned by the Run goroutine.
	ctx         context.Context
	table       *Table
	polls       pollSet
	pending     map[string]models.InterfaceRecord // latest fetched truth per polled key
	deferred    []models.InterfaceRecord
	mode        Mode
	rerun       bool
	rerunManual bool
	probing     bool
	ticker      *time.Ticker
	tickC       <-chan time.Time
	lastErr     error
	lastSettled time.Time
}

// New creates an Engine. It does nothing until Run is called.
func New(cfg Config, fetcher Fetcher, prober Prober, bus plugin.EventBus, logger *zap.Logger, opts ...Option) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		prober:  prober,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
		stable:  stableSet(cfg.StableStates),
		inbox:   make(chan func(), 64),
		done:    make(chan struct{}),
		ctx:     context.Background(),
		table:   NewTable(nil),
		polls:   make(pollSet),
		pending: make(map[string]models.InterfaceRecord),
		mode:    ModeIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	e.gate = debounce.New(cfg.DebounceDelay, func() {
		e.post(func() { e.startRefresh(TriggerSignal) })
	})
	return e
}

// Run owns the engine state until ctx is cancelled. It performs an initial
// refresh on entry.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	e.ctx = ctx
	defer close(e.done)
	defer e.gate.Stop()
	defer e.stopPolling()

	e.logger.Info("reconciliation engine started",
		zap.Duration("debounce_delay", e.cfg.DebounceDelay),
		zap.Duration("poll_interval", e.cfg.PollInterval),
		zap.Duration("poll_timeout", e.cfg.PollTimeout),
	)

	e.startRefresh(TriggerStartup)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("reconciliation engine stopped")
			return nil
		case fn := <-e.inbox:
			fn()
		case <-e.tickC:
			e.pollTick()
		}
	}
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Notify reports that something about the host interfaces may have changed.
// Bursts are collapsed by the debounce gate into one automatic refresh. Safe
// to call from any goroutine.
func (e *Engine) Notify() {
	e.gate.Notify()
}

// Refresh requests a refresh cycle. A manual refresh always publishes the
// fetched truth immediately, even while transitions are being polled.
func (e *Engine) Refresh(manual bool) error {
	trigger := TriggerSignal
	if manual {
		trigger = TriggerManual
	}
	if !e.post(func() { e.startRefresh(trigger) }) {
		return ErrStopped
	}
	return nil
}

// Snapshot returns a copy of the current engine state.
func (e *Engine) Snapshot(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if !e.post(func() { reply <- e.status() }) {
		return Status{}, ErrStopped
	}
	select {
	case s := <-reply:
		return s, nil
	case <-e.done:
		return Status{}, ErrStopped
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// post hands fn to the Run goroutine. It reports false once Run has exited.
func (e *Engine) post(fn func()) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.inbox <- fn:
		return true
	case <-e.done:
		return false
	}
}

func (e *Engine) status() Status {
	s := Status{
		Mode:        e.mode,
		Interfaces:  e.table.Snapshot(),
		Polling:     e.polls.entries(),
		Deferred:    e.deferred != nil,
		LastSettled: e.lastSettled,
	}
	if e.lastErr != nil {
		s.LastError = e.lastErr.Error()
	}
	return s
}

// startRefresh launches a fetch on a worker goroutine. A request arriving
// while a fetch is in flight is coalesced into a single rerun.
func (e *Engine) startRefresh(trigger Trigger) {
	if e.mode == ModeRefreshing {
		e.rerun = true
		e.rerunManual = e.rerunManual || trigger == TriggerManual
		return
	}
	e.mode = ModeRefreshing

	ctx := e.ctx
	cycle := uuid.NewString()
	go func() {
		records, err := e.safeFetch(ctx)
		if err == nil && e.enricher != nil {
			records = e.safeEnrich(ctx, records)
		}
		e.post(func() { e.finishRefresh(cycle, trigger, records, err) })
	}()
}

func (e *Engine) finishRefresh(cycle string, trigger Trigger, records []models.InterfaceRecord, err error) {
	e.mode = ModeIdle
	e.reconcileFetch(cycle, trigger, records, err)

	if e.rerun {
		next := TriggerSignal
		if e.rerunManual {
			next = TriggerManual
		}
		e.rerun, e.rerunManual = false, false
		e.startRefresh(next)
	}
}

// reconcileFetch applies one inventory result: it detects unsettled
// transitions and either defers the visible update or installs and
// publishes the new snapshot.
func (e *Engine) reconcileFetch(cycle string, trigger Trigger, records []models.InterfaceRecord, err error) {
	if err != nil {
		e.lastErr = err
		e.metrics.refreshes.WithLabelValues(string(trigger), "error").Inc()
		e.logger.Warn("inventory fetch failed",
			zap.String("cycle_id", cycle),
			zap.String("trigger", string(trigger)),
			zap.Error(err),
		)
		e.publish(TopicRefreshFailed, &RefreshFailedEvent{
			CycleID: cycle,
			Trigger: trigger,
			Error:   err.Error(),
		})
		return
	}
	e.lastErr = nil

	manual := trigger == TriggerManual
	now := e.now()
	started := 0
	for _, rec := range records {
		prev, ok := e.table.Get(rec.Name)
		if !ok || !needsPoll(prev, rec) {
			continue
		}
		if e.polls.add(rec.Name, now) {
			started++
			e.logger.Debug("interface transition pending, polling",
				zap.String("interface", rec.Name),
				zap.String("oper_state", string(rec.OperState)),
			)
		}
	}
	e.metrics.pollEntries.Set(float64(len(e.polls)))
	e.notePending(records)

	if len(e.polls) > 0 {
		e.ensurePolling()
	}

	if started > 0 && !manual {
		e.deferred = records
		e.metrics.refreshes.WithLabelValues(string(trigger), "deferred").Inc()
		e.logger.Debug("publish deferred until transitions settle",
			zap.String("cycle_id", cycle),
			zap.Int("polling", len(e.polls)),
		)
		return
	}

	e.install(records, !manual)
	e.metrics.refreshes.WithLabelValues(string(trigger), "published").Inc()
	e.publishSettled(cycle, trigger, nil)
}

// notePending remembers the fetched state of every polled name so a settle
// without a probe result can still install the most recent truth.
func (e *Engine) notePending(records []models.InterfaceRecord) {
	seen := make(map[string]bool, len(e.polls))
	for _, rec := range records {
		if !e.polls.has(rec.Name) {
			continue
		}
		e.pending[rec.Key()] = rec
		seen[rec.Key()] = true
	}
	for k := range e.pending {
		if !seen[k] {
			delete(e.pending, k)
		}
	}
}

// install replaces the table with records. When holdPolling is set, names
// that are still being polled keep their previously visible state.
func (e *Engine) install(records []models.InterfaceRecord, holdPolling bool) {
	next := NewTable(records)
	if holdPolling {
		for _, p := range e.polls {
			if prev, ok := e.table.Get(p.Name); ok {
				next.MergeState(prev)
			}
		}
	}
	e.table = next
	e.deferred = nil
}

func (e *Engine) ensurePolling() {
	if e.ticker != nil {
		return
	}
	e.ticker = time.NewTicker(e.cfg.PollInterval)
	e.tickC = e.ticker.C
	e.logger.Debug("poll loop started", zap.Int("entries", len(e.polls)))
}

func (e *Engine) stopPolling() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	e.ticker = nil
	e.tickC = nil
	e.logger.Debug("poll loop stopped")
}

// pollTick probes every polled interface on worker goroutines. A tick that
// fires while the previous batch is still running is skipped.
func (e *Engine) pollTick() {
	if len(e.polls) == 0 {
		e.stopPolling()
		return
	}
	if e.probing {
		e.logger.Debug("poll tick skipped, probes still in flight")
		e.expireInFlight()
		return
	}
	e.probing = true

	ctx := e.ctx
	entries := e.polls.entries()
	go func() {
		outcomes := e.probeAll(ctx, entries)
		e.post(func() {
			e.probing = false
			e.applyProbes(outcomes)
		})
	}()
}

// expireInFlight force-settles entries past the poll timeout while their
// probes have not returned yet.
func (e *Engine) expireInFlight() {
	now := e.now()
	var outcomes []probeOutcome
	for _, entry := range e.polls.entries() {
		if now.Sub(entry.Started) > e.cfg.PollTimeout {
			outcomes = append(outcomes, probeOutcome{name: entry.Name, err: errProbeInFlight})
		}
	}
	if len(outcomes) > 0 {
		e.applyProbes(outcomes)
	}
}

func (e *Engine) probeAll(ctx context.Context, entries []PollEntry) []probeOutcome {
	outcomes := make([]probeOutcome, len(entries))
	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	for i, entry := range entries {
		g.Go(func() error {
			rec, err := e.safeProbe(ctx, entry.Name)
			outcomes[i] = probeOutcome{name: entry.Name, record: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// applyProbes settles entries from one tick and publishes a single
// consolidated event when anything settled.
func (e *Engine) applyProbes(outcomes []probeOutcome) {
	now := e.now()
	var (
		settled  []SettledInterface
		updates  []models.InterfaceRecord
		vanished []string
	)
	for _, out := range outcomes {
		k := models.NameKey(out.name)
		entry, ok := e.polls[k]
		if !ok {
			continue
		}
		if out.err != nil {
			e.metrics.probeErrors.Inc()
			e.logger.Debug("probe failed",
				zap.String("interface", out.name),
				zap.Error(out.err),
			)
		}

		reason, done := settleDecision(entry, out, now, e.cfg.PollTimeout, e.stable)
		if !done {
			continue
		}
		delete(e.polls, k)
		truth, hasTruth := e.pending[k]
		delete(e.pending, k)
		e.metrics.settles.WithLabelValues(string(reason)).Inc()
		settled = append(settled, SettledInterface{Name: entry.Name, Reason: reason})

		switch {
		case out.err == nil && out.record == nil:
			vanished = append(vanished, entry.Name)
		case out.record != nil:
			updates = append(updates, *out.record)
		case hasTruth:
			updates = append(updates, truth)
		}

		e.logger.Info("interface settled",
			zap.String("interface", entry.Name),
			zap.String("reason", string(reason)),
			zap.Duration("elapsed", now.Sub(entry.Started)),
		)
	}
	e.metrics.pollEntries.Set(float64(len(e.polls)))

	if len(e.polls) == 0 {
		e.stopPolling()
	}
	if len(settled) == 0 {
		return
	}

	if e.deferred != nil {
		e.install(e.deferred, true)
	}
	for _, rec := range updates {
		e.table.MergeState(rec)
	}
	for _, name := range vanished {
		e.table.Remove(name)
	}
	e.publishSettled(uuid.NewString(), TriggerPoll, settled)
}

func (e *Engine) publishSettled(cycle string, trigger Trigger, settled []SettledInterface) {
	polling := make([]string, 0, len(e.polls))
	for _, p := range e.polls.entries() {
		polling = append(polling, p.Name)
	}
	e.lastSettled = e.now()
	e.publish(TopicInterfacesSettled, &SettledEvent{
		CycleID:    cycle,
		Trigger:    trigger,
		Interfaces: e.table.Snapshot(),
		Settled:    settled,
		Polling:    polling,
	})
}

func (e *Engine) publish(topic string, payload any) {
	e.metrics.publishes.WithLabelValues(topic).Inc()
	if e.bus == nil {
		return
	}
	err := e.bus.Publish(e.ctx, plugin.Event{
		Topic:     topic,
		Source:    EventSource,
		Timestamp: e.now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		e.logger.Warn("publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (e *Engine) safeFetch(ctx context.Context) (records []models.InterfaceRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inventory fetch panicked: %v", r)
		}
	}()
	return e.fetcher.Fetch(ctx)
}

// safeProbe bounds one probe by the poll timeout. A prober that ignores its
// context is abandoned once the deadline passes.
func (e *Engine) safeProbe(ctx context.Context, name string) (*models.InterfaceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.PollTimeout)
	defer cancel()

	type result struct {
		rec *models.InterfaceRecord
		err error
	}
	done := make(chan result, 1)
	go func() {
		var res result
		defer func() {
			if r := recover(); r != nil {
				res = result{err: fmt.Errorf("probe %q panicked: %v", name, r)}
			}
			done <- res
		}()
		res.rec, res.err = e.prober.Probe(ctx, name)
	}()

	select {
	case res := <-done:
		return res.rec, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("probe %q: %w", name, ctx.Err())
	}
}

func (e *Engine) safeEnrich(ctx context.Context, records []models.InterfaceRecord) (out []models.InterfaceRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("enrichment panicked", zap.Any("panic", r))
			out = records
		}
	}()
	return e.enricher.Enrich(ctx, records)
}

// Package linkstate is the interface admin/connection state module. It owns
// the reconciliation engine, feeds it change signals, runs state-changing
// commands, and fans settle events out to HTTP, WebSocket and MQTT
// consumers.
package linkstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HerbHall/netswitch/internal/command"
	"github.com/HerbHall/netswitch/internal/config"
	"github.com/HerbHall/netswitch/internal/enrich"
	"github.com/HerbHall/netswitch/internal/inventory"
	"github.com/HerbHall/netswitch/internal/plugin"
	"github.com/HerbHall/netswitch/internal/reconcile"
	"github.com/HerbHall/netswitch/internal/signals"
	pkgplugin "github.com/HerbHall/netswitch/pkg/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin           = (*Module)(nil)
	_ pkgplugin.HealthChecker = (*Module)(nil)
	_ pkgplugin.Validator     = (*Module)(nil)
)

// Name is the module's registry name and route prefix.
const Name = "linkstate"

// stopTimeout bounds how long Stop waits for the engine loop to exit.
const stopTimeout = 5 * time.Second

// ErrNotStarted is returned by operations that need a running engine.
var ErrNotStarted = errors.New("linkstate: module not started")

// Option configures a Module.
type Option func(*Module)

// WithInventory overrides the inventory backend chosen from settings.
func WithInventory(src inventory.Source) Option {
	return func(m *Module) { m.source = src }
}

// WithExecutor overrides the command backend chosen from settings.
func WithExecutor(x command.Executor) Option {
	return func(m *Module) { m.executor = x }
}

// WithEnricher overrides the host enrichment lookup.
func WithEnricher(en reconcile.Enricher) Option {
	return func(m *Module) { m.enricher = en }
}

// WithSignalSources overrides the change signal sources.
func WithSignalSources(sources ...signals.Source) Option {
	return func(m *Module) {
		m.sources = sources
		m.sourcesSet = true
	}
}

// WithRegisterer sets where the engine metrics are registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Module) { m.registerer = reg }
}

// Module implements the linkstate plugin.
type Module struct {
	bus        pkgplugin.EventBus
	registerer prometheus.Registerer
	logger     *zap.Logger
	settings   Settings

	source     inventory.Source
	executor   command.Executor
	enricher   reconcile.Enricher
	sources    []signals.Source
	sourcesSet bool

	engine  *reconcile.Engine
	limiter *rate.Limiter
	hub     *hub
	mqtt    *mqttSink
	cancel  context.CancelFunc
	unsubs  []func()

	mu       sync.RWMutex
	degraded []signals.Failure
	mqttErr  error
}

// New creates the module. Events are published on bus.
func New(bus pkgplugin.EventBus, opts ...Option) *Module {
	m := &Module{
		bus:      bus,
		logger:   zap.NewNop(),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Name() string    { return Name }
func (m *Module) Version() string { return "0.1.0" }

// Init reads the module settings.
func (m *Module) Init(cfg *viper.Viper, logger *zap.Logger) error {
	if logger != nil {
		m.logger = logger
	}
	s, err := LoadSettings(config.New(cfg))
	if err != nil {
		return fmt.Errorf("linkstate settings: %w", err)
	}
	m.settings = s
	m.limiter = rate.NewLimiter(rate.Limit(s.RefreshRate), s.RefreshBurst)
	m.hub = newHub(m.logger.Named("stream"))

	m.logger.Info("linkstate module initialized",
		zap.String("backend", s.Backend),
		zap.Duration("debounce_delay", s.Engine.DebounceDelay),
		zap.Duration("poll_interval", s.Engine.PollInterval),
		zap.Duration("poll_timeout", s.Engine.PollTimeout),
	)
	return nil
}

// ValidateConfig re-checks the loaded settings.
func (m *Module) ValidateConfig() error {
	return m.settings.Validate()
}

// Start launches the engine and its signal sources.
func (m *Module) Start(ctx context.Context) error {
	if m.engine != nil {
		return errors.New("linkstate: already started")
	}
	if m.limiter == nil {
		m.limiter = rate.NewLimiter(rate.Limit(m.settings.RefreshRate), m.settings.RefreshBurst)
	}
	if m.hub == nil {
		m.hub = newHub(m.logger.Named("stream"))
	}
	m.buildBackends()

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.engine = reconcile.New(m.settings.Engine, m.source, m.source, m.bus, m.logger.Named("engine"),
		reconcile.WithEnricher(m.enricher),
		reconcile.WithMetrics(reconcile.NewMetrics(m.registerer)),
	)

	m.subscribe()

	if m.settings.MQTT.Broker != "" {
		sink, err := newMQTTSink(m.settings.MQTT, m.logger.Named("mqtt"))
		m.mu.Lock()
		m.mqttErr = err
		m.mu.Unlock()
		if err != nil {
			m.logger.Warn("mqtt sink unavailable", zap.String("broker", m.settings.MQTT.Broker), zap.Error(err))
		} else {
			m.mqtt = sink
			m.unsubs = append(m.unsubs, m.bus.Subscribe(reconcile.TopicInterfacesSettled, sink.handleSettled))
		}
	}

	go func() {
		if err := m.engine.Run(ctx); err != nil {
			m.logger.Error("reconciliation engine exited", zap.Error(err))
		}
	}()

	failed := signals.StartAll(ctx, m.logger.Named("signals"), m.engine.Notify, m.sources...)
	m.mu.Lock()
	m.degraded = failed
	m.mu.Unlock()
	if len(failed) > 0 && len(failed) == len(m.sources) {
		m.logger.Warn("no change signal source running, only manual refresh will update state")
	}

	m.logger.Info("linkstate module started", zap.Int("signal_sources", len(m.sources)-len(failed)))
	return nil
}

// Stop cancels the engine and detaches every sink.
func (m *Module) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.engine != nil {
		select {
		case <-m.engine.Done():
		case <-time.After(stopTimeout):
			m.logger.Warn("reconciliation engine did not stop in time")
		}
	}
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	if m.hub != nil {
		m.hub.closeAll()
	}
	if m.mqtt != nil {
		m.mqtt.close()
	}
	m.logger.Info("linkstate module stopped")
	return nil
}

func (m *Module) buildBackends() {
	s := m.settings
	if m.source == nil {
		m.source = NewInventory(s)
	}
	if m.executor == nil {
		m.executor = NewExecutor(s.Backend)
	}
	if m.enricher == nil {
		m.enricher = enrich.New(m.logger.Named("enrich"))
	}
	if !m.sourcesSet {
		m.sources = []signals.Source{signals.NewAddressSource(m.logger.Named("signals"))}
		if s.LinkSignals {
			m.sources = append(m.sources, signals.NewLinkSource(m.logger.Named("signals")))
		}
	}
}

// NewInventory returns the inventory source for the configured backend.
func NewInventory(s Settings) inventory.Source {
	if s.Backend == BackendCommand {
		return inventory.NewCommandSource(inventory.ExecRunner{}, s.InventoryCommand, s.ProbeCommand)
	}
	return inventory.NewNetlinkSource(inventory.WithLoopback(s.IncludeLoopback))
}

// NewExecutor returns the command executor for backend.
func NewExecutor(backend string) command.Executor {
	if backend == BackendCommand {
		return command.NewNetshExecutor(nil)
	}
	return command.NewNetlinkExecutor()
}

func (m *Module) subscribe() {
	m.unsubs = append(m.unsubs,
		m.bus.Subscribe(reconcile.TopicInterfacesSettled, m.logSettled),
		m.bus.Subscribe(reconcile.TopicInterfacesSettled, m.hub.handleEvent),
		m.bus.Subscribe(reconcile.TopicRefreshFailed, m.hub.handleEvent),
		m.bus.Subscribe(TopicCommandFailed, m.hub.handleEvent),
	)
}

func (m *Module) logSettled(_ context.Context, ev pkgplugin.Event) {
	p, ok := ev.Payload.(*reconcile.SettledEvent)
	if !ok {
		return
	}
	fields := []zap.Field{
		zap.String("cycle_id", p.CycleID),
		zap.String("trigger", string(p.Trigger)),
		zap.Int("interfaces", len(p.Interfaces)),
	}
	if len(p.Polling) > 0 {
		fields = append(fields, zap.Strings("polling", p.Polling))
	}
	for _, s := range p.Settled {
		fields = append(fields, zap.String("settled."+s.Name, string(s.Reason)))
	}
	m.logger.Info("interface state published", fields...)
}

// Snapshot returns the engine's current state.
func (m *Module) Snapshot(ctx context.Context) (reconcile.Status, error) {
	if m.engine == nil {
		return reconcile.Status{}, ErrNotStarted
	}
	return m.engine.Snapshot(ctx)
}

// Refresh requests a manual refresh.
func (m *Module) Refresh() error {
	if m.engine == nil {
		return ErrNotStarted
	}
	return m.engine.Refresh(true)
}

// SetAdminState enables or disables name. On success the engine is
// notified so the change is observed through the debounced path.
func (m *Module) SetAdminState(ctx context.Context, name string, enable bool) error {
	if m.engine == nil {
		return ErrNotStarted
	}
	err := m.executor.SetAdminState(ctx, name, enable)
	return m.afterCommand(ctx, adminOp(enable), name, err)
}

// SetConnectionState connects name to profile, or disconnects it.
func (m *Module) SetConnectionState(ctx context.Context, name, profile string, connect bool) error {
	if m.engine == nil {
		return ErrNotStarted
	}
	err := m.executor.SetConnectionState(ctx, name, profile, connect)
	return m.afterCommand(ctx, connectionOp(connect), name, err)
}

func (m *Module) afterCommand(ctx context.Context, op, name string, err error) error {
	if err == nil {
		m.logger.Info("interface command applied", zap.String("op", op), zap.String("interface", name))
		m.engine.Notify()
		return nil
	}

	ev := &CommandFailedEvent{Op: op, Interface: name, Kind: string(command.KindOf(err)), Error: err.Error()}
	var ce *command.Error
	if errors.As(err, &ce) {
		ev.Code = ce.Code
	}
	m.logger.Warn("interface command failed",
		zap.String("op", op),
		zap.String("interface", name),
		zap.String("kind", ev.Kind),
		zap.Error(err),
	)
	if perr := m.bus.Publish(ctx, pkgplugin.Event{Topic: TopicCommandFailed, Source: Name, Payload: ev}); perr != nil {
		m.logger.Warn("publish failed", zap.String("topic", TopicCommandFailed), zap.Error(perr))
	}
	return err
}

// Health reports down before start or after the engine exits, and degraded
// while a signal source, the MQTT sink or the last refresh has failed.
func (m *Module) Health(ctx context.Context) pkgplugin.HealthStatus {
	if m.engine == nil {
		return pkgplugin.HealthStatus{Status: pkgplugin.HealthDown, Message: "not started"}
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	st, err := m.engine.Snapshot(ctx)
	if err != nil {
		return pkgplugin.HealthStatus{Status: pkgplugin.HealthDown, Message: err.Error()}
	}

	h := pkgplugin.HealthStatus{
		Status: pkgplugin.HealthOK,
		Details: map[string]string{
			"backend":    m.settings.Backend,
			"mode":       string(st.Mode),
			"interfaces": strconv.Itoa(len(st.Interfaces)),
			"polling":    strconv.Itoa(len(st.Polling)),
		},
	}
	var problems []string

	m.mu.RLock()
	for _, f := range m.degraded {
		problems = append(problems, "signal source "+f.Error())
	}
	if m.mqttErr != nil {
		problems = append(problems, "mqtt: "+m.mqttErr.Error())
	}
	m.mu.RUnlock()

	if st.LastError != "" {
		problems = append(problems, "last refresh: "+st.LastError)
	}
	if len(problems) > 0 {
		h.Status = pkgplugin.HealthDegraded
		h.Message = strings.Join(problems, "; ")
	}
	return h
}

func adminOp(enable bool) string {
	if enable {
		return command.OpEnable
	}
	return command.OpDisable
}

func connectionOp(connect bool) string {
	if connect {
		return command.OpConnect
	}
	return command.OpDisconnect
}

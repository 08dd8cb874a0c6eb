package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/intercept"
	"github.com/agbru/calcpatch/internal/logging"
	"github.com/agbru/calcpatch/internal/patch"
)

const tracerName = "github.com/agbru/calcpatch/internal/lifecycle"

// Lifecycle errors.
var (
	// ErrInvalidTransition is returned by Enable when the set is already
	// installed or active.
	ErrInvalidTransition = errors.New("lifecycle: invalid state transition")
	// ErrDeactivate wraps facility failures while switching the set off.
	// The set stays active when Disable returns it.
	ErrDeactivate = errors.New("lifecycle: deactivate failed")
)

// Recorder receives lifecycle events for metrics.
type Recorder interface {
	ObserveTransition(operation string, err error)
	ObserveTeardownWarning()
	SetState(state string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithRecorder reports lifecycle events to r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.rec = r }
}

// WithTracerProvider sets the provider used for lifecycle spans. The
// global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) { m.tracer = tp.Tracer(tracerName) }
}

// Manager owns the lifecycle state of one patch set. It borrows the set
// and the facility; neither is copied nor released.
//
// Enable and Disable are serialized; State may be read concurrently.
type Manager struct {
	set      *patch.Set
	fac      intercept.Facility
	tx       intercept.Transactor
	strategy Strategy
	log      logging.Logger
	rec      Recorder
	tracer   trace.Tracer

	mu      sync.Mutex
	state   atomic.Int32
	handles []intercept.Handle
}

// NewManager validates set and pairs it with the facility and strategy.
// CombinedActivation requires a facility implementing intercept.Transactor.
func NewManager(set *patch.Set, fac intercept.Facility, strategy Strategy, opts ...Option) (*Manager, error) {
	if err := set.Validate(); err != nil {
		return nil, apperrors.WrapError(err, "lifecycle: invalid patch set")
	}
	if fac == nil {
		return nil, apperrors.NewConfigError("lifecycle: no interception facility")
	}
	if strategy == nil {
		return nil, apperrors.NewConfigError("lifecycle: no activation strategy")
	}

	m := &Manager{
		set:      set,
		fac:      fac,
		strategy: strategy,
		log:      logging.Nop(),
		tracer:   otel.Tracer(tracerName),
	}
	if strategy.needsTransactor() {
		tx, ok := fac.(intercept.Transactor)
		if !ok {
			return nil, apperrors.NewConfigError("lifecycle: strategy %s needs a facility that installs and activates in one step", strategy.Name())
		}
		m.tx = tx
	}
	for _, opt := range opts {
		opt(m)
	}
	m.setState(Uninstalled)
	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Strategy returns the activation strategy in use.
func (m *Manager) Strategy() Strategy {
	return m.strategy
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	if m.rec != nil {
		m.rec.SetState(s.String())
	}
}

func (m *Manager) warn(w apperrors.TeardownWarning) {
	m.log.Warn(w.Error(), logging.String("target", w.Target))
	if m.rec != nil {
		m.rec.ObserveTeardownWarning()
	}
}

func (m *Manager) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("calcpatch.op", op),
		attribute.String("calcpatch.strategy", m.strategy.Name()),
		attribute.Int("calcpatch.entries", m.set.Len()),
	))
}

func (m *Manager) finish(span trace.Span, operation string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
	}
	span.SetAttributes(attribute.String("calcpatch.state", m.State().String()))
	span.End()
	if m.rec != nil {
		m.rec.ObserveTransition(operation, err)
	}
}

// Enable installs and activates every entry of the set as one unit. On
// failure the set is left exactly as before the call.
func (m *Manager) Enable(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := uuid.NewString()
	ctx, span := m.startSpan(ctx, "lifecycle.Enable", op)
	defer func() { m.finish(span, "enable", err) }()

	prev := m.State()
	if prev != Uninstalled && prev != Disabled {
		return apperrors.WrapError(ErrInvalidTransition, "enable from %s", prev)
	}

	log := m.opLogger(op)
	log.Info("enabling patch", logging.String("strategy", m.strategy.Name()), logging.Int("entries", m.set.Len()))

	hs, err := m.strategy.enable(ctx, m)
	if err != nil {
		log.Error("patch not enabled", err)
		return err
	}
	m.handles = hs
	m.setState(Active)
	log.Info("patch enabled", logging.Int("handles", len(hs)))
	return nil
}

// Disable deactivates the set. The separate strategy also uninstalls every
// entry. Disabling a set that is not active logs a teardown warning and
// returns nil with the state unchanged. If deactivation fails the set
// stays active so a later Disable can finish the job.
func (m *Manager) Disable(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := uuid.NewString()
	ctx, span := m.startSpan(ctx, "lifecycle.Disable", op)
	defer func() { m.finish(span, "disable", err) }()

	state := m.State()
	if state != Active {
		m.warn(apperrors.TeardownWarning{Target: "patch set", Reason: "state is " + state.String()})
		span.AddEvent("teardown skipped")
		return nil
	}

	log := m.opLogger(op)
	log.Info("disabling patch", logging.Int("handles", len(m.handles)))

	err = m.strategy.disable(ctx, m)
	if errors.Is(err, ErrDeactivate) {
		log.Error("patch still active", err)
		return err
	}
	m.handles = nil
	m.setState(Disabled)
	if err != nil {
		log.Error("patch disabled with errors", err)
		return err
	}
	log.Info("patch disabled")
	return nil
}

func (m *Manager) opLogger(op string) opLogger {
	return opLogger{Logger: m.log, op: op}
}

// Init is the load-time entry point: it enables the set and returns 0 or
// the exit code matching the failure.
func (m *Manager) Init(ctx context.Context) int {
	if err := m.Enable(ctx); err != nil {
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitSuccess
}

// Exit is the unload-time entry point. Failures are logged, not returned.
func (m *Manager) Exit(ctx context.Context) {
	if err := m.Disable(ctx); err != nil {
		m.log.Error("exit: disable failed", err)
	}
}

// opLogger tags every record with the operation ID.
type opLogger struct {
	logging.Logger
	op string
}

func (l opLogger) Info(msg string, fields ...logging.Field) {
	l.Logger.Info(msg, append(fields, logging.String("op", l.op))...)
}

func (l opLogger) Error(msg string, err error, fields ...logging.Field) {
	l.Logger.Error(msg, err, append(fields, logging.String("op", l.op))...)
}

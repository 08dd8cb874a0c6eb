// Package app wires calcpatch together: configuration, logging, metrics,
// the calc dispatch table, the patch set and its lifecycle manager.
package app

import (
	"io"
	"strings"

	"github.com/agbru/calcpatch/internal/calc"
	"github.com/agbru/calcpatch/internal/config"
	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/intercept"
	"github.com/agbru/calcpatch/internal/lifecycle"
	"github.com/agbru/calcpatch/internal/logging"
	"github.com/agbru/calcpatch/internal/metrics"
	"github.com/agbru/calcpatch/internal/patch"
	"github.com/agbru/calcpatch/internal/substitute"
)

// Application is one calcpatch instance.
type Application struct {
	Config    config.AppConfig
	Logger    logging.Logger
	Metrics   *metrics.Metrics
	Table     *intercept.Table
	Set       *patch.Set
	Manager   *lifecycle.Manager
	Out       io.Writer
	ErrWriter io.Writer

	facility  intercept.Facility
	originals []*expr.Func
	nop, fib  substitute.Substitute
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.Logger = l }
}

// WithFacility makes the manager drive f instead of the dispatch table.
// Calls still go through the table.
func WithFacility(f intercept.Facility) AppOption {
	return func(a *Application) { a.facility = f }
}

// WithOriginals registers funcs as the calc object's functions in place of
// the ones calc.Register provides.
func WithOriginals(funcs ...*expr.Func) AppOption {
	return func(a *Application) { a.originals = funcs }
}

// WithSubstitutes replaces the substitutes the patch installs.
func WithSubstitutes(nop, fib substitute.Substitute) AppOption {
	return func(a *Application) { a.nop, a.fib = nop, fib }
}

// New validates cfg and builds the application. Log records go to errOut.
func New(cfg config.AppConfig, out, errOut io.Writer, opts ...AppOption) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Application{Config: cfg, Out: out, ErrWriter: errOut}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = newLogger(cfg, errOut)
	}
	a.Metrics = metrics.NewMetrics()

	a.Table = intercept.NewTable(a.Logger)
	register := func() error { return calc.Register(a.Table) }
	if a.originals != nil {
		register = func() error { return a.Table.Register(patch.CalcObject, a.originals...) }
	}
	if err := register(); err != nil {
		return nil, apperrors.WrapError(err, "register calc")
	}
	if a.facility == nil {
		a.facility = a.Table
	}

	subOpts := []substitute.Option{substitute.WithLogger(a.Logger), substitute.WithRecorder(a.Metrics)}
	if a.nop == nil {
		a.nop = substitute.NewNoOp(subOpts...)
	}
	if a.fib == nil {
		a.fib = substitute.NewFib(subOpts...)
	}
	a.Set = patch.CalcSet(a.nop, a.fib)

	strategy, err := a.strategy()
	if err != nil {
		return nil, err
	}
	a.Manager, err = lifecycle.NewManager(a.Set, a.facility, strategy,
		lifecycle.WithLogger(a.Logger), lifecycle.WithRecorder(a.Metrics))
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Application) strategy() (lifecycle.Strategy, error) {
	release := a.Config.Release
	if name := strings.ToLower(a.Config.Strategy); name == lifecycle.StrategyAuto || name == "" {
		var err error
		if release, err = a.Config.PlatformRelease(); err != nil {
			return nil, err
		}
	}
	s, err := lifecycle.StrategyByName(a.Config.Strategy, release)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("activation strategy selected", logging.String("strategy", s.Name()), logging.String("release", release))
	return s, nil
}

func newLogger(cfg config.AppConfig, w io.Writer) logging.Logger {
	if cfg.LogFormat == "console" {
		return logging.NewConsoleLogger(w, "calcpatch").WithLevel(cfg.LogLevel)
	}
	return logging.NewLogger(w, "calcpatch").WithLevel(cfg.LogLevel)
}

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/intercept"
	"github.com/agbru/calcpatch/internal/logging"
	"github.com/agbru/calcpatch/internal/patch"
)

// Strategy sequences the facility calls for one platform flavor. Both
// strategies leave the same end state: every entry live after a
// successful enable, nothing installed after a failed one or a disable.
type Strategy interface {
	Name() string
	enable(ctx context.Context, m *Manager) ([]intercept.Handle, error)
	disable(ctx context.Context, m *Manager) error
	needsTransactor() bool
}

var (
	// CombinedActivation installs and activates the set in one facility
	// call; the facility owns rollback and releases on deactivate.
	CombinedActivation Strategy = combined{}
	// SeparateRegisterEnable installs each entry, then activates the set,
	// undoing the installs if activation fails and uninstalling on
	// disable.
	SeparateRegisterEnable Strategy = separate{}
)

// Strategy names accepted by StrategyByName.
const (
	StrategyAuto     = "auto"
	StrategyCombined = "combined"
	StrategySeparate = "separate"
)

// combinedSince is the first platform release whose lifecycle API merges
// register and enable.
var combinedSince = [2]int{5, 1}

type combined struct{}

func (combined) Name() string          { return StrategyCombined }
func (combined) needsTransactor() bool { return true }

func (combined) enable(_ context.Context, m *Manager) ([]intercept.Handle, error) {
	hs, err := m.tx.Commit(m.set)
	if err != nil {
		var installErr apperrors.InstallError
		if !errors.As(err, &installErr) {
			err = apperrors.ActivationError{Cause: err}
		}
		return nil, err
	}
	return hs, nil
}

func (combined) disable(_ context.Context, m *Manager) error {
	return m.deactivate()
}

type separate struct{}

func (separate) Name() string          { return StrategySeparate }
func (separate) needsTransactor() bool { return false }

// enable keeps Installed internal: State() moves straight from the
// previous state to Active, or not at all.
func (separate) enable(ctx context.Context, m *Manager) ([]intercept.Handle, error) {
	hs, undo, err := m.installAll()
	if err != nil {
		return nil, err
	}
	trace.SpanFromContext(ctx).AddEvent(Installed.String(), trace.WithAttributes(attribute.Int("calcpatch.handles", len(hs))))

	if err := m.fac.Activate(hs); err != nil {
		m.log.Error("activation failed, unregistering patch", err, logging.Int("handles", len(hs)))
		if rbErr := undo.rollback(m.log); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return nil, apperrors.ActivationError{Cause: err}
	}
	return hs, nil
}

func (separate) disable(_ context.Context, m *Manager) error {
	if err := m.deactivate(); err != nil {
		return err
	}
	var errs []error
	for i := len(m.handles) - 1; i >= 0; i-- {
		h := m.handles[i]
		err := m.fac.Uninstall(h)
		switch {
		case err == nil:
		case errors.Is(err, intercept.ErrUnknownHandle):
			m.warn(apperrors.TeardownWarning{Target: h.String(), Reason: "already uninstalled"})
		default:
			m.log.Error("uninstall failed", err, logging.String("handle", h.String()))
			errs = append(errs, apperrors.WrapError(err, "uninstall %s", h))
		}
	}
	return errors.Join(errs...)
}

// StrategyByName resolves a configured strategy name. "auto" picks the
// strategy matching release.
func StrategyByName(name, release string) (Strategy, error) {
	switch strings.ToLower(name) {
	case StrategyCombined:
		return CombinedActivation, nil
	case StrategySeparate:
		return SeparateRegisterEnable, nil
	case StrategyAuto, "":
		return StrategyForRelease(release)
	default:
		return nil, apperrors.NewConfigError("unknown activation strategy %q (want %s, %s or %s)",
			name, StrategyAuto, StrategyCombined, StrategySeparate)
	}
}

// StrategyForRelease picks the strategy for a platform release string such
// as "6.8.0-45-generic" or "4.19".
func StrategyForRelease(release string) (Strategy, error) {
	major, minor, err := parseRelease(release)
	if err != nil {
		return nil, err
	}
	if major > combinedSince[0] || (major == combinedSince[0] && minor >= combinedSince[1]) {
		return CombinedActivation, nil
	}
	return SeparateRegisterEnable, nil
}

func parseRelease(release string) (major, minor int, err error) {
	parts := strings.SplitN(release, ".", 3)
	if len(parts) < 2 {
		return 0, 0, apperrors.NewConfigError("invalid platform release %q", release)
	}
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, apperrors.NewConfigError("invalid platform release %q", release)
	}
	digits := parts[1]
	if i := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = digits[:i]
	}
	if minor, err = strconv.Atoi(digits); err != nil {
		return 0, 0, apperrors.NewConfigError("invalid platform release %q", release)
	}
	return major, minor, nil
}

func (m *Manager) installAll() ([]intercept.Handle, undoStack, error) {
	var (
		hs   []intercept.Handle
		undo undoStack
	)
	err := m.set.Each(func(object string, e patch.Entry) error {
		h, err := m.fac.Install(object, e)
		if err != nil {
			return apperrors.InstallError{Object: object, Target: e.Target, Cause: err}
		}
		hs = append(hs, h)
		undo.push(func() error { return m.fac.Uninstall(h) })
		m.log.Debug("target installed", logging.String("object", object), logging.String("target", e.Target))
		return nil
	})
	if err != nil {
		m.log.Error("install failed, rolling back", err, logging.Int("installed", len(hs)))
		if rbErr := undo.rollback(m.log); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return nil, nil, err
	}
	return hs, undo, nil
}

// deactivate switches off the manager's handles. Handles the facility
// reports as inactive or already released are teardown warnings; any
// other failure is returned wrapped in ErrDeactivate.
func (m *Manager) deactivate() error {
	err := m.fac.Deactivate(m.handles)
	if err == nil {
		return nil
	}
	var hard []error
	for _, e := range flatten(err) {
		if errors.Is(e, intercept.ErrNotActive) || errors.Is(e, intercept.ErrUnknownHandle) {
			m.warn(apperrors.TeardownWarning{Target: "patch entry", Reason: e.Error()})
			continue
		}
		hard = append(hard, e)
	}
	if len(hard) > 0 {
		return fmt.Errorf("%w: %w", ErrDeactivate, errors.Join(hard...))
	}
	return nil
}

// flatten splits an errors.Join tree into its leaves.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/calcpatch/internal/config"
	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/fixedpoint"
	"github.com/agbru/calcpatch/internal/intercept"
	"github.com/agbru/calcpatch/internal/intercept/mocks"
	"github.com/agbru/calcpatch/internal/lifecycle"
	"github.com/agbru/calcpatch/internal/logging"
	"github.com/agbru/calcpatch/internal/patch"
	"github.com/agbru/calcpatch/internal/substitute"
	"github.com/agbru/calcpatch/internal/ui"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	app *Application
	out *bytes.Buffer
	err *bytes.Buffer
	log *syncBuffer
}

func newHarness(t *testing.T, mutate func(*config.AppConfig), opts ...AppOption) harness {
	t.Helper()
	ui.SetCurrentTheme(ui.NoColorTheme)
	cfg := config.Default()
	cfg.Release = "6.8.0-45-generic"
	if mutate != nil {
		mutate(&cfg)
	}
	h := harness{out: &bytes.Buffer{}, err: &bytes.Buffer{}, log: &syncBuffer{}}
	opts = append([]AppOption{WithLogger(logging.NewLogger(h.log, "test"))}, opts...)
	a, err := New(cfg, h.out, h.err, opts...)
	require.NoError(t, err)
	h.app = a
	return h
}

func TestNew_StrategySelection(t *testing.T) {
	tests := []struct {
		strategy string
		release  string
		want     string
	}{
		{"auto", "6.8.0", lifecycle.StrategyCombined},
		{"auto", "4.19.0", lifecycle.StrategySeparate},
		{"separate", "6.8.0", lifecycle.StrategySeparate},
		{"Combined", "", lifecycle.StrategyCombined},
	}
	for _, tt := range tests {
		t.Run(tt.strategy+"/"+tt.release, func(t *testing.T) {
			h := newHarness(t, func(c *config.AppConfig) {
				c.Strategy = tt.strategy
				c.Release = tt.release
			})
			assert.Equal(t, tt.want, h.app.Manager.Strategy().Name())
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Strategy = "hot"
	_, err := New(cfg, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, apperrors.ExitErrorConfig, apperrors.ExitCode(err))

	cfg = config.Default()
	cfg.Release = "banana"
	_, err = New(cfg, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, apperrors.ExitErrorConfig, apperrors.ExitCode(err))
}

func TestCall_Patched(t *testing.T) {
	for _, strategy := range []string{"combined", "separate"} {
		t.Run(strategy, func(t *testing.T) {
			h := newHarness(t, func(c *config.AppConfig) {
				c.Strategy = strategy
				c.Concurrency = 8
			})

			code := h.app.Call(context.Background(), "fib", []string{"10"})
			require.Equal(t, apperrors.ExitSuccess, code, h.err.String())

			assert.Contains(t, h.out.String(), "calc/user_func_fib(10) [patched]")
			assert.Contains(t, h.out.String(), "55 (raw 880)")
			assert.Contains(t, h.out.String(), "calls: 8")
			assert.Equal(t, 8, strings.Count(h.log.String(), "function fib is now patched"))
			assert.Contains(t, h.log.String(), `"seconds":`)
			assert.Equal(t, lifecycle.Disabled, h.app.Manager.State())
		})
	}
}

func TestCall_Unpatched(t *testing.T) {
	h := newHarness(t, func(c *config.AppConfig) { c.Unpatched = true })

	code := h.app.Call(context.Background(), "user_func_fib", []string{"12"})
	require.Equal(t, apperrors.ExitSuccess, code)
	assert.Contains(t, h.out.String(), "[original]")
	assert.Contains(t, h.out.String(), "144 (raw 2304)")
	assert.NotContains(t, h.log.String(), "is now patched")
	assert.Equal(t, lifecycle.Uninstalled, h.app.Manager.State())
}

// pairedFunc counts calls and cleanups and checks that each cleanup gets
// the context of a call that has not been cleaned up yet.
type pairedFunc struct {
	name string

	mu       sync.Mutex
	pending  map[any]bool
	calls    int
	cleanups int
	strays   int
}

func newPairedFunc(name string) *pairedFunc {
	return &pairedFunc{name: name, pending: make(map[any]bool)}
}

func (p *pairedFunc) Name() string { return p.name }

func (p *pairedFunc) Call(_ *expr.Func, _ expr.Args, c any) (fixedpoint.Fixed, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.pending[c] = true
	return fixedpoint.FromInt(1), nil
}

func (p *pairedFunc) Cleanup(_ *expr.Func, c any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanups++
	if !p.pending[c] {
		p.strays++
	}
	delete(p.pending, c)
}

func (p *pairedFunc) assertPaired(t *testing.T, want int) {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, want, p.calls, "calls")
	assert.Equal(t, want, p.cleanups, "cleanups")
	assert.Zero(t, p.strays, "cleanups without a matching call")
	assert.Empty(t, p.pending, "calls never cleaned up")
}

func TestCall_CleanupPairedWithEveryCall(t *testing.T) {
	const n = 6
	for _, unpatched := range []bool{false, true} {
		name := "patched"
		if unpatched {
			name = "unpatched"
		}
		t.Run(name, func(t *testing.T) {
			origFib, origNop := newPairedFunc("fib"), newPairedFunc("nop")
			subFib, subNop := newPairedFunc("fib"), newPairedFunc("nop")

			h := newHarness(t, func(c *config.AppConfig) {
				c.Concurrency = n
				c.Unpatched = unpatched
			},
				WithOriginals(
					substitute.Func(patch.TargetNop, origNop),
					substitute.Func(patch.TargetFib, origFib),
				),
				WithSubstitutes(subNop, subFib),
			)

			require.Equal(t, apperrors.ExitSuccess, h.app.Call(context.Background(), "fib", []string{"3"}), h.err.String())

			reached, idle := subFib, origFib
			if unpatched {
				reached, idle = origFib, subFib
			}
			reached.assertPaired(t, n)
			idle.assertPaired(t, 0)
			origNop.assertPaired(t, 0)
			subNop.assertPaired(t, 0)
		})
	}
}

func TestCall_Quiet(t *testing.T) {
	h := newHarness(t, func(c *config.AppConfig) { c.Quiet = true })

	require.Equal(t, apperrors.ExitSuccess, h.app.Call(context.Background(), "nop", nil))
	assert.Equal(t, "0\n", h.out.String())
	assert.Contains(t, h.log.String(), "function nop is now patched")
}

func TestCall_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative", []string{"-3"}, "argument is negative"},
		{"reference", []string{"x"}, "argument is not a constant value"},
		{"missing", nil, "expression has no argument"},
		{"overflow", []string{"80"}, "fixed-point range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			code := h.app.Call(context.Background(), "fib", tt.args)
			assert.Equal(t, apperrors.ExitErrorGeneric, code)
			assert.Contains(t, h.out.String(), "(raw -1)")
			assert.Contains(t, h.out.String(), tt.want)
			assert.Contains(t, h.log.String(), "fib: invalid argument")
			assert.Equal(t, lifecycle.Disabled, h.app.Manager.State())
		})
	}
}

func TestCall_UnknownTarget(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, apperrors.ExitErrorConfig, h.app.Call(context.Background(), "sqrt", []string{"4"}))
	assert.Contains(t, h.err.String(), `unknown target "sqrt"`)
	assert.Equal(t, lifecycle.Uninstalled, h.app.Manager.State())
}

func TestCall_ActivationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	fac := mocks.NewMockFacility(ctrl)
	fac.EXPECT().Install(gomock.Any(), gomock.Any()).Return(intercept.Handle{ID: 1}, nil)
	fac.EXPECT().Install(gomock.Any(), gomock.Any()).Return(intercept.Handle{ID: 2}, nil)
	fac.EXPECT().Activate(gomock.Len(2)).Return(errors.New("transition in progress"))
	fac.EXPECT().Uninstall(gomock.Any()).Return(nil).Times(2)

	h := newHarness(t, func(c *config.AppConfig) { c.Strategy = "separate" }, WithFacility(fac))

	code := h.app.Call(context.Background(), "fib", []string{"10"})
	assert.Equal(t, apperrors.ExitErrorActivation, code)
	assert.Contains(t, h.err.String(), "patch not enabled")
	assert.Empty(t, h.out.String())
}

func TestCall_CombinedNeedsTransactor(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := config.Default()
	cfg.Strategy = "combined"
	_, err := New(cfg, &bytes.Buffer{}, &bytes.Buffer{}, WithFacility(mocks.NewMockFacility(ctrl)))
	assert.Equal(t, apperrors.ExitErrorConfig, apperrors.ExitCode(err))
}

func TestDescribe(t *testing.T) {
	h := newHarness(t, nil)
	require.Equal(t, apperrors.ExitSuccess, h.app.Describe())

	out := h.out.String()
	assert.True(t, strings.HasPrefix(out, "objects:\n"), out)
	for _, want := range []string{"name: calc", "name: user_func_nop", "substitute: fib", "cleanup: user_func_fib_cleanup"} {
		assert.Contains(t, out, want)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness(t, func(c *config.AppConfig) { c.MetricsAddr = "127.0.0.1:0" })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() { done <- h.app.Run(ctx) }()

	require.Eventually(t, func() bool { return h.app.Manager.State() == lifecycle.Active }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, apperrors.ExitSuccess, code)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, lifecycle.Disabled, h.app.Manager.State())
	assert.Contains(t, h.out.String(), "patch active")
}

func TestParseArgs(t *testing.T) {
	args := ParseArgs([]string{"10", "2.5", "y"})
	require.Len(t, args, 3)
	assert.Equal(t, expr.Const, args[0].Kind)
	assert.Equal(t, int64(10), args[0].Value.Int())
	assert.Equal(t, expr.Const, args[1].Kind)
	assert.Equal(t, expr.Call, args[2].Kind)
	assert.Equal(t, "y", args[2].Name)
}

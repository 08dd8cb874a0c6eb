package intercept

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/fixedpoint"
	"github.com/agbru/calcpatch/internal/logging"
	"github.com/agbru/calcpatch/internal/patch"
)

// slot is one redirectable function. cur is read lock-free by callers.
type slot struct {
	orig *expr.Func
	cur  atomic.Pointer[expr.Func]
	// inst is the replacement installed on this slot, if any.
	inst *install
}

type install struct {
	handle    Handle
	slot      *slot
	repl      *expr.Func
	active    bool
	committed bool
}

// Table is an in-process dispatch table of objects and their functions.
// Calls made through Call reach the current implementation of a function:
// the original, or the replacement while one is active.
//
// Registration happens before any patching. Lookups on the call path take
// a read lock only to find the slot; dispatch itself is an atomic load.
type Table struct {
	mu       sync.RWMutex
	objects  map[string]map[string]*slot
	installs map[uint64]*install
	nextID   uint64
	log      logging.Logger
}

// NewTable returns an empty table.
func NewTable(log logging.Logger) *Table {
	if log == nil {
		log = logging.Nop()
	}
	return &Table{
		objects:  make(map[string]map[string]*slot),
		installs: make(map[uint64]*install),
		log:      log,
	}
}

// Register adds an object and its original functions.
func (t *Table) Register(object string, funcs ...*expr.Func) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.objects[object]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateObject, object)
	}
	slots := make(map[string]*slot, len(funcs))
	for _, f := range funcs {
		s := &slot{orig: f}
		s.cur.Store(f)
		slots[f.Name] = s
	}
	t.objects[object] = slots
	t.log.Debug("object registered", logging.String("object", object), logging.Int("functions", len(funcs)))
	return nil
}

func (t *Table) lookup(object, target string) (*slot, error) {
	slots, ok := t.objects[object]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, object)
	}
	s, ok := slots[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTarget, object, target)
	}
	return s, nil
}

// Call invokes the current implementation of object/target.
func (t *Table) Call(object, target string, args expr.Args, c any) (fixedpoint.Fixed, error) {
	t.mu.RLock()
	s, err := t.lookup(object, target)
	t.mu.RUnlock()
	if err != nil {
		return 0, err
	}
	f := s.cur.Load()
	return f.Call(f, args, c)
}

// Cleanup invokes the current cleanup of object/target, if any.
func (t *Table) Cleanup(object, target string, c any) error {
	t.mu.RLock()
	s, err := t.lookup(object, target)
	t.mu.RUnlock()
	if err != nil {
		return err
	}
	if f := s.cur.Load(); f.Cleanup != nil {
		f.Cleanup(f, c)
	}
	return nil
}

// Patched reports whether calls to object/target currently reach a
// replacement.
func (t *Table) Patched(object, target string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, err := t.lookup(object, target)
	if err != nil {
		return false
	}
	return s.cur.Load() != s.orig
}

// Install implements Facility.
func (t *Table) Install(object string, e patch.Entry) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.installLocked(object, e)
}

func (t *Table) installLocked(object string, e patch.Entry) (Handle, error) {
	s, err := t.lookup(object, e.Target)
	if err != nil {
		return Handle{}, err
	}
	if s.inst != nil {
		return Handle{}, fmt.Errorf("%w: %s/%s", ErrAlreadyInstalled, object, e.Target)
	}

	repl := &expr.Func{Name: e.Target, Call: e.Call, Cleanup: e.Cleanup}
	if repl.Cleanup == nil {
		repl.Cleanup = s.orig.Cleanup
	}
	t.nextID++
	in := &install{
		handle: Handle{ID: t.nextID, Object: object, Target: e.Target},
		slot:   s,
		repl:   repl,
	}
	s.inst = in
	t.installs[in.handle.ID] = in
	t.log.Debug("target installed", logging.String("handle", in.handle.String()))
	return in.handle, nil
}

// Uninstall implements Facility.
func (t *Table) Uninstall(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uninstallLocked(h)
}

func (t *Table) uninstallLocked(h Handle) error {
	in, ok := t.installs[h.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	if in.active {
		return fmt.Errorf("%w: %s", ErrStillActive, h)
	}
	in.slot.inst = nil
	delete(t.installs, h.ID)
	t.log.Debug("target uninstalled", logging.String("handle", h.String()))
	return nil
}

// Activate implements Facility. Either every handle becomes live or the
// table is left unchanged.
func (t *Table) Activate(hs []Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activateLocked(hs)
}

func (t *Table) activateLocked(hs []Handle) error {
	batch := make([]*install, 0, len(hs))
	for _, h := range hs {
		in, ok := t.installs[h.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
		}
		if in.active {
			return fmt.Errorf("%w: %s", ErrAlreadyActive, h)
		}
		batch = append(batch, in)
	}
	for _, in := range batch {
		in.slot.cur.Store(in.repl)
		in.active = true
	}
	return nil
}

// Deactivate implements Facility. Every active handle is restored even if
// others fail; the failures are joined.
func (t *Table) Deactivate(hs []Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, h := range hs {
		in, ok := t.installs[h.ID]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownHandle, h))
			continue
		}
		if !in.active {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNotActive, h))
			continue
		}
		in.slot.cur.Store(in.slot.orig)
		in.active = false
		if in.committed {
			in.slot.inst = nil
			delete(t.installs, h.ID)
		}
	}
	return errors.Join(errs...)
}

// Commit implements Transactor: it installs and activates every entry of
// set under one lock. On failure nothing stays installed.
func (t *Table) Commit(set *patch.Set) ([]Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var hs []Handle
	err := set.Each(func(object string, e patch.Entry) error {
		h, err := t.installLocked(object, e)
		if err != nil {
			return apperrors.InstallError{Object: object, Target: e.Target, Cause: err}
		}
		hs = append(hs, h)
		return nil
	})
	if err == nil {
		err = t.activateLocked(hs)
	}
	if err != nil {
		for i := len(hs) - 1; i >= 0; i-- {
			// Fresh inactive handles always uninstall.
			_ = t.uninstallLocked(hs[i])
		}
		return nil, err
	}
	for _, h := range hs {
		t.installs[h.ID].committed = true
	}
	return hs, nil
}

var (
	_ Facility   = (*Table)(nil)
	_ Transactor = (*Table)(nil)
)

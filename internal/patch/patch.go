// Package patch describes what a patch replaces: a set of objects
// (modules), each listing the targets to redirect and their substitutes.
//
// A Set is built once at startup and handed by reference to the lifecycle
// manager, which never copies or mutates it.
package patch

import (
	"errors"
	"fmt"

	"github.com/agbru/calcpatch/internal/expr"
	"github.com/agbru/calcpatch/internal/substitute"
)

// Entry binds one target to its replacement.
type Entry struct {
	// Target is the function name, unique within its object.
	Target string
	// Substitute names the replacement for diagnostics.
	Substitute string
	// Call replaces the target's call entry point.
	Call expr.CallFunc
	// Cleanup replaces the target's cleanup entry point. Nil keeps the
	// original cleanup.
	Cleanup expr.CleanupFunc
}

// Replace builds an entry redirecting target to s.
func Replace(target string, s substitute.Substitute) Entry {
	return Entry{Target: target, Substitute: s.Name(), Call: s.Call, Cleanup: s.Cleanup}
}

// Object groups the entries patching one object. Its entries are
// activated and deactivated together.
type Object struct {
	Name    string
	Entries []Entry
}

// Set is the complete patch table.
type Set struct {
	Objects []Object
}

// NewSet returns a set over objs.
func NewSet(objs ...Object) *Set {
	return &Set{Objects: objs}
}

// Validation errors returned by Set.Validate.
var (
	ErrEmptySet        = errors.New("patch: set has no entries")
	ErrEmptyName       = errors.New("patch: empty name")
	ErrDuplicateObject = errors.New("patch: duplicate object")
	ErrDuplicateTarget = errors.New("patch: duplicate target")
	ErrNoCall          = errors.New("patch: entry has no call function")
)

// Validate checks the table invariants: at least one entry, named objects
// and targets, object names unique in the set, target names unique within
// their object and a call function on every entry.
func (s *Set) Validate() error {
	if s == nil || s.Len() == 0 {
		return ErrEmptySet
	}
	objects := make(map[string]struct{}, len(s.Objects))
	for _, obj := range s.Objects {
		if obj.Name == "" {
			return ErrEmptyName
		}
		if _, dup := objects[obj.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateObject, obj.Name)
		}
		objects[obj.Name] = struct{}{}

		targets := make(map[string]struct{}, len(obj.Entries))
		for _, e := range obj.Entries {
			if e.Target == "" {
				return fmt.Errorf("%w: target in object %s", ErrEmptyName, obj.Name)
			}
			if _, dup := targets[e.Target]; dup {
				return fmt.Errorf("%w: %s/%s", ErrDuplicateTarget, obj.Name, e.Target)
			}
			targets[e.Target] = struct{}{}
			if e.Call == nil {
				return fmt.Errorf("%w: %s/%s", ErrNoCall, obj.Name, e.Target)
			}
		}
	}
	return nil
}

// Len returns the number of entries across all objects.
func (s *Set) Len() int {
	n := 0
	for _, obj := range s.Objects {
		n += len(obj.Entries)
	}
	return n
}

// Each calls fn for every entry in table order. It stops at the first
// error and returns it.
func (s *Set) Each(fn func(object string, e Entry) error) error {
	for _, obj := range s.Objects {
		for _, e := range obj.Entries {
			if err := fn(obj.Name, e); err != nil {
				return err
			}
		}
	}
	return nil
}

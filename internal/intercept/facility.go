// Package intercept defines the call-interception facility the lifecycle
// manager drives, and Table, an in-process implementation that redirects
// calls made through a named dispatch table.
package intercept

//go:generate mockgen -destination=mocks/mock_facility.go -package=mocks github.com/agbru/calcpatch/internal/intercept Facility,Transactor

import (
	"errors"
	"fmt"

	"github.com/agbru/calcpatch/internal/patch"
)

// Handle identifies one installed entry. Handles are only meaningful to
// the facility that issued them.
type Handle struct {
	ID     uint64
	Object string
	Target string
}

func (h Handle) String() string {
	return fmt.Sprintf("%s/%s#%d", h.Object, h.Target, h.ID)
}

// Facility installs replacements for targets and switches them live.
type Facility interface {
	// Install prepares the redirection of one target. Nothing changes for
	// callers until the handle is activated.
	Install(object string, e patch.Entry) (Handle, error)
	// Uninstall releases an inactive handle.
	Uninstall(h Handle) error
	// Activate switches every handle live, or none of them.
	Activate(hs []Handle) error
	// Deactivate restores the original behavior of every active handle.
	// Inactive handles are reported with ErrNotActive and left untouched.
	Deactivate(hs []Handle) error
}

// Transactor is implemented by facilities able to install and activate a
// whole set in one step. Handles it returns are released on Deactivate.
type Transactor interface {
	Commit(set *patch.Set) ([]Handle, error)
}

// Facility errors.
var (
	ErrUnknownObject    = errors.New("intercept: unknown object")
	ErrUnknownTarget    = errors.New("intercept: unknown target")
	ErrAlreadyInstalled = errors.New("intercept: target already has a replacement installed")
	ErrUnknownHandle    = errors.New("intercept: unknown handle")
	ErrNotActive        = errors.New("intercept: handle not active")
	ErrAlreadyActive    = errors.New("intercept: handle already active")
	ErrStillActive      = errors.New("intercept: handle still active")
	ErrDuplicateObject  = errors.New("intercept: object already registered")
)

package lifecycle

import (
	"errors"

	"github.com/agbru/calcpatch/internal/logging"
)

// undoStack accumulates rollback closures that run in reverse order when
// enabling fails partway through. Each closure undoes one install.
type undoStack []func() error

func (u *undoStack) push(fn func() error) {
	*u = append(*u, fn)
}

// rollback runs every closure in reverse order, logging and collecting
// failures. It returns nil if every closure succeeds.
func (u undoStack) rollback(log logging.Logger) error {
	var errs []error
	for i := len(u) - 1; i >= 0; i-- {
		if err := u[i](); err != nil {
			log.Warn("rollback step failed", logging.Int("step", i), logging.Err(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

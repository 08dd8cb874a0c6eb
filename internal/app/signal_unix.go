//go:build unix

package app

import (
	"os"

	"golang.org/x/sys/unix"
)

var terminationSignals = []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}

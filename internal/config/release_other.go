//go:build !linux

package config

import "errors"

func hostRelease() (string, error) {
	return "", errors.New("no kernel release on this platform")
}

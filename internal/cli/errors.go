package cli

import (
	"errors"

	"github.com/aretw0/ayr/pkg/domain"
)

// ErrNoWorkspace is returned when a command cannot tell which workspace to use.
var ErrNoWorkspace = errors.New("no workspace: pass a source file or --key")

func isBusy(err error) bool {
	return errors.Is(err, domain.ErrBusy)
}

// ResolveKey picks the workspace key: the explicit key, else the source path.
func ResolveKey(key, path string) (string, error) {
	if key != "" {
		return key, nil
	}
	if path != "" {
		return path, nil
	}
	return "", ErrNoWorkspace
}

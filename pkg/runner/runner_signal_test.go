//go:build !windows

package runner

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// interruptedController raises SIGINT during Run and, like the real controller,
// folds the cancelled call into the view instead of returning an error.
type interruptedController struct {
	*fakeController
}

func (c *interruptedController) Run(ctx context.Context, source string) error {
	_ = c.record("run:" + source)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
	}
	return nil
}

func TestRunner_InterruptKeepsConsoleAlive(t *testing.T) {
	ctrl := &interruptedController{fakeController: newFakeController()}

	out := runScript(t, ctrl, "run\nrefresh\nhelp\n", WithSource(StaticSource("print(1)")))

	assert.Equal(t, []string{"run:print(1)", "refresh"}, ctrl.Calls())
	assert.Contains(t, out, "[System] Interrupted.")
	assert.Contains(t, out, "Commands:")
}

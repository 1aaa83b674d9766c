//go:build !unix

package runtime

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup is a no-op on non-unix platforms; coprocesses
// are reaped individually via exec.Cmd.Wait.
func configureProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup is unavailable on non-unix platforms.
func killProcessGroup(pid int, sig syscall.Signal) error {
	return nil
}

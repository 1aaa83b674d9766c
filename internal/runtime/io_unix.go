//go:build unix

package runtime

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessGroup places a coprocess's child in its own process
// group so that a coprocess which ignores its pipes closing (and never
// exits on its own) can be reaped as a group rather than leaking a
// session of orphaned grandchildren.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends sig to the entire process group led by pid.
// Used as a last resort when a coprocess's Wait() never returns after
// its pipes have been closed.
func killProcessGroup(pid int, sig syscall.Signal) error {
	return unix.Kill(-pid, sig)
}

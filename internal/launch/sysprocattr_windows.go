//go:build windows

package launch

import (
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

func configureCmdSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}

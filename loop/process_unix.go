//go:build unix

// File: loop/process_unix.go
// Author: momentics <momentics@gmail.com>
//
// Process handle: spawn with credential narrowing validated up front, exit
// notification delivered on the loop goroutine.

package loop

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"syscall"

	"github.com/momentics/hioload-evloop/api"
)

// SpawnOptions configures Spawn. Args is the full argv including the
// program name; a nil Args defaults to {Path}.
//
// UID and GID are deliberately wider than the kernel's credential type.
// Values outside [0, 2^32) fail validation before the child is created;
// they are never truncated.
type SpawnOptions struct {
	Path string
	Args []string
	Env  []string
	Dir  string

	UID *int64
	GID *int64

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// ExitCb fires on the loop goroutine once the child exits. sig is -1
	// unless the child was terminated by a signal.
	ExitCb func(p *Process, status int, sig syscall.Signal)
}

// Process tracks one spawned child.
type Process struct {
	Handle
	cmd    *exec.Cmd
	exitCb func(p *Process, status int, sig syscall.Signal)
	exited bool
}

func narrowCred(v *int64, name string) (uint32, error) {
	if *v < 0 || *v > math.MaxUint32 {
		return 0, api.NewCodeError(api.EINVAL,
			fmt.Errorf("%s %d out of range for credential type", name, *v))
	}
	return uint32(*v), nil
}

// Spawn starts the child and registers its exit notification with l.
func Spawn(l *Loop, opts SpawnOptions) (*Process, error) {
	cmd := &exec.Cmd{
		Path:   opts.Path,
		Args:   opts.Args,
		Env:    opts.Env,
		Dir:    opts.Dir,
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	}
	if len(cmd.Args) == 0 {
		cmd.Args = []string{opts.Path}
	}
	if opts.UID != nil || opts.GID != nil {
		cred := &syscall.Credential{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
		}
		if opts.UID != nil {
			uid, err := narrowCred(opts.UID, "uid")
			if err != nil {
				return nil, err
			}
			cred.Uid = uid
		}
		if opts.GID != nil {
			gid, err := narrowCred(opts.GID, "gid")
			if err != nil {
				return nil, err
			}
			cred.Gid = gid
		}
		cmd.SysProcAttr = &syscall.SysProcAttr{Credential: cred}
	}

	p := &Process{cmd: cmd, exitCb: opts.ExitCb}
	if err := p.Handle.init(l, api.KindProcess); err != nil {
		return nil, err
	}
	p.teardown = func() { p.setActive(false) }
	if err := cmd.Start(); err != nil {
		p.Close(nil)
		return nil, err
	}
	p.setActive(true)
	go p.wait()
	return p, nil
}

// PID returns the child's process id.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Kill sends sig to the child.
func (p *Process) Kill(sig os.Signal) error {
	if p.exited {
		return api.NewCodeError(api.EINVAL, nil)
	}
	return p.cmd.Process.Signal(sig)
}

func (p *Process) wait() {
	werr := p.cmd.Wait()
	status, sig := 0, syscall.Signal(-1)
	if ws, ok := p.cmd.ProcessState.Sys().(syscall.WaitStatus); ok {
		if ws.Signaled() {
			sig = ws.Signal()
		}
		status = ws.ExitStatus()
	} else if werr != nil {
		status = -1
	}
	// Submit fails only when the loop is already gone.
	_ = p.loop.Submit(func() {
		p.exited = true
		p.setActive(false)
		if p.exitCb != nil && !p.closing {
			p.exitCb(p, status, sig)
		}
	})
}

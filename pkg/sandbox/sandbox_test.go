package sandbox

import (
	"os/exec"
	"testing"
)

func TestWithinRoots(t *testing.T) {
	roots := []string{"/workspace"}
	if !WithinRoots("/workspace/a.txt", roots) {
		t.Fatal("expected path under root to match")
	}
	if !WithinRoots("/workspace", roots) {
		t.Fatal("expected root itself to match")
	}
	if WithinRoots("/workspace2/a.txt", roots) {
		t.Fatal("expected sibling-prefixed path to not match")
	}
	if WithinRoots("/etc/passwd", roots) {
		t.Fatal("expected unrelated path to not match")
	}
}

func TestApplyAdvisoryModeSkipsUnavailableSandbox(t *testing.T) {
	s := &Sandbox{available: false, cfg: Config{Mode: ModeAdvisory}}
	cmd := exec.Command("true")
	if err := s.Apply(cmd); err != nil {
		t.Fatalf("advisory mode should not error when sandbox unavailable: %v", err)
	}
}

func TestApplyMandatoryModeFailsWhenUnavailable(t *testing.T) {
	s := &Sandbox{available: false, cfg: Config{Mode: ModeMandatory}}
	cmd := exec.Command("true")
	if err := s.Apply(cmd); err == nil {
		t.Fatal("expected mandatory mode to fail when sandbox unavailable")
	}
}

func TestDeniedSyscallsIncludesPtraceAndMount(t *testing.T) {
	denied := DeniedSyscalls()
	want := map[string]bool{"ptrace": false, "mount": false, "reboot": false}
	for _, d := range denied {
		if _, ok := want[d]; ok {
			want[d] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected %q in denied syscall list", name)
		}
	}
}

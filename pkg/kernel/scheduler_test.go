package kernel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestForkRunsHighestPriorityFirst(t *testing.T) {
	sched := NewScheduler(3)
	self := sched.MainThread()

	var order []string
	record := func(name string) func(any) {
		return func(any) {
			order = append(order, name)
		}
	}

	sched.Fork("high", 2, false, record("high"), nil)
	sched.Fork("mid", 1, false, record("mid"), nil)
	low := sched.Fork("low", 0, true, record("low"), nil)

	// Joining the lowest-priority thread blocks the main thread (itself
	// the highest priority) out of the ready queue entirely, so the
	// scheduler drains "high" and "mid" strictly before "low" runs.
	sched.Join(self, low)

	if diff := cmp.Diff([]string{"high", "mid", "low"}, order); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}
}

func TestJoinReturnsExitStatus(t *testing.T) {
	sched := NewScheduler(2)
	self := sched.MainThread()

	child := sched.Fork("child", 0, true, func(any) {}, nil)
	status := sched.Join(self, child)

	if status != 0 {
		t.Errorf("Join status = %d, want 0", status)
	}
}

func TestJoinAfterFinishReturnsImmediately(t *testing.T) {
	sched := NewScheduler(2)
	self := sched.MainThread()

	child := sched.Fork("child", 1, true, func(any) {}, nil)
	sched.Yield(self) // let child run to completion before Join

	status := sched.Join(self, child)
	if status != 0 {
		t.Errorf("Join status = %d, want 0", status)
	}
}

func TestDonateRaisesAndRestoreLowers(t *testing.T) {
	sched := NewScheduler(5)
	self := sched.MainThread()

	low := sched.Fork("low", 1, false, func(any) {}, nil)
	sched.Gate().SetLevel(Disabled)
	sched.Donate(low, 4)
	if low.Priority() != 4 {
		t.Fatalf("Priority() after Donate = %d, want 4", low.Priority())
	}
	sched.Restore(low, low.OriginalPriority())
	if low.Priority() != 1 {
		t.Errorf("Priority() after Restore = %d, want 1", low.Priority())
	}
	sched.Gate().SetLevel(Enabled)

	sched.Yield(self)
}

func TestWorkingPathDefaultsToRoot(t *testing.T) {
	sched := NewScheduler(1)
	self := sched.MainThread()
	if got := self.WorkingPath(); got != "/" {
		t.Errorf("WorkingPath() = %q, want /", got)
	}
	self.SetWorkingPath("/a/b")
	if got := self.WorkingPath(); got != "/a/b" {
		t.Errorf("WorkingPath() = %q, want /a/b", got)
	}
}

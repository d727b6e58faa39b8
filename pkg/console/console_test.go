package console

import (
	"io"
	"strings"
	"testing"

	"github.com/Weheineman/nachOS/pkg/kernel"
)

func TestBridgeGetCharReadsOneByte(t *testing.T) {
	sched := kernel.NewScheduler(1)
	self := sched.MainThread()

	inR, inW := io.Pipe()
	bridge := Loopback(sched, inR, io.Discard)

	go inW.Write([]byte("A"))

	if got := bridge.GetChar(self); got != 'A' {
		t.Errorf("GetChar() = %q, want 'A'", got)
	}
}

func TestBridgePutCharWritesOneByte(t *testing.T) {
	sched := kernel.NewScheduler(1)
	self := sched.MainThread()

	outR, outW := io.Pipe()
	bridge := Loopback(sched, strings.NewReader(""), outW)

	done := make(chan byte, 1)
	go func() {
		buf := make([]byte, 1)
		outR.Read(buf)
		done <- buf[0]
	}()

	bridge.PutChar(self, 'Z')

	if got := <-done; got != 'Z' {
		t.Errorf("PutChar('Z') delivered %q, want 'Z'", got)
	}
}

// TestBridgeGetCharSerializesTwoReaders forks a reader that reaches
// GetChar (and starts its background pipe Read) before self does, so
// the reader's lock holding is what decides which byte it gets: the
// reader's own read is already in flight by the time self's GetChar
// call blocks on the (held) reader lock, so the reader must consume
// the first byte written and self the second.
func TestBridgeGetCharSerializesTwoReaders(t *testing.T) {
	sched := kernel.NewScheduler(2)
	self := sched.MainThread()

	inR, inW := io.Pipe()
	bridge := Loopback(sched, inR, io.Discard)

	var readerChar byte
	reader := sched.Fork("reader", 1, true, func(any) {
		readerChar = bridge.GetChar(sched.CurrentThread())
	}, nil)

	// Let the forked reader enter GetChar and start its background Read
	// before self ever calls GetChar itself.
	sched.Yield(self)

	// io.Pipe's Write only returns once a Read has consumed it, so this
	// is guaranteed to land on the reader's already-pending Read before
	// self has started one of its own.
	wrote := make(chan struct{})
	go func() {
		inW.Write([]byte("X"))
		close(wrote)
	}()
	<-wrote

	go inW.Write([]byte("Y"))
	selfChar := bridge.GetChar(self)
	sched.Join(self, reader)

	if readerChar != 'X' {
		t.Errorf("reader's GetChar() = %q, want 'X' (it started reading first)", readerChar)
	}
	if selfChar != 'Y' {
		t.Errorf("self's GetChar() = %q, want 'Y'", selfChar)
	}
}

func TestBridgeCloseWithoutPTYIsNoop(t *testing.T) {
	sched := kernel.NewScheduler(1)
	bridge := Loopback(sched, strings.NewReader(""), io.Discard)
	if err := bridge.Close(); err != nil {
		t.Errorf("Close() on a loopback bridge = %v, want nil", err)
	}
}

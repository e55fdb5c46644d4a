package facade

import (
	"testing"
	"time"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/core/object"
	"github.com/momentics/kobject/internal/sched"
)

func newTestSystem(t *testing.T) (*System, *object.Process) {
	t.Helper()
	s := NewSystem(nil)
	p, _, err := s.CreateProcess("test")
	if err != nil {
		t.Fatal(err)
	}
	return s, p
}

func TestNarrowedDuplicateCannotSignal(t *testing.T) {
	s, p := newTestSystem(t)
	v, err := s.EventCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}

	dup, err := s.HandleDuplicate(p, v, api.RightWait)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ObjectSignal(p, dup, 0, api.SignalUser0); api.StatusOf(err) != api.StatusAccessDenied {
		t.Fatalf("signal via WAIT-only duplicate returned %v, want access denied", err)
	}
	// The original retains its full rights.
	if err := s.ObjectSignal(p, v, 0, api.SignalUser0); err != nil {
		t.Fatalf("signal via original: %v", err)
	}
	// The narrowed duplicate still satisfies a wait.
	observed, err := s.ObjectWaitOne(p, dup, api.SignalUser0, api.DeadlinePast)
	if err != nil {
		t.Fatalf("wait via duplicate: %v", err)
	}
	if observed&api.SignalUser0 == 0 {
		t.Errorf("observed = %x, missing the asserted bit", observed)
	}
}

func TestObjectSignalRejectsNonUserBits(t *testing.T) {
	s, p := newTestSystem(t)
	v, err := s.EventCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ObjectSignal(p, v, 0, api.SignalReadable); api.StatusOf(err) != api.StatusInvalidArgs {
		t.Fatalf("non-user bit accepted: %v", err)
	}
	if err := s.ObjectSignal(p, v, 0, api.EventSignaled); err != nil {
		t.Fatalf("SIGNALED rejected on event: %v", err)
	}
}

func TestEventPairCloseWakesWaiter(t *testing.T) {
	s, p := newTestSystem(t)
	v0, v1, err := s.EventPairCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var observed api.Signals
	var werr error
	go func() {
		observed, werr = s.ObjectWaitOne(p, v1, api.EventPairPeerClosed, sched.DeadlineAfter(5*time.Second))
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := s.HandleClose(p, v0); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter not woken by peer close")
	}
	if werr != nil {
		t.Fatalf("wait returned %v, want PEER_CLOSED observation", werr)
	}
	if observed&api.EventPairPeerClosed == 0 {
		t.Errorf("observed = %x, missing PEER_CLOSED", observed)
	}
}

func TestSignalPeerAcrossPair(t *testing.T) {
	s, p := newTestSystem(t)
	v0, v1, err := s.EventPairCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ObjectSignalPeer(p, v0, 0, api.SignalUser5); err != nil {
		t.Fatal(err)
	}
	observed, err := s.ObjectWaitOne(p, v1, api.SignalUser5, api.DeadlinePast)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if observed&api.SignalUser5 == 0 {
		t.Errorf("observed = %x on peer, missing user bit", observed)
	}

	ev, err := s.EventCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ObjectSignalPeer(p, ev, 0, api.SignalUser0); api.StatusOf(err) != api.StatusWrongType {
		t.Errorf("signal_peer on event returned %v, want wrong type", err)
	}
}

func TestPortQueueWakesPortWait(t *testing.T) {
	s, p := newTestSystem(t)
	pv, err := s.PortCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var pkt api.Packet
	var werr error
	go func() {
		pkt, werr = s.PortWait(p, pv, sched.DeadlineAfter(5*time.Second))
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	user := api.Packet{Key: 77, Type: api.PacketTypeUser}
	if err := s.PortQueue(p, pv, &user); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("port waiter never woke")
	}
	if werr != nil {
		t.Fatalf("port wait returned %v", werr)
	}
	if pkt.Key != 77 {
		t.Errorf("packet key = %d, want 77", pkt.Key)
	}
}

func TestWaitAsyncOnceDeliversKeyedPacket(t *testing.T) {
	s, p := newTestSystem(t)
	ev, err := s.EventCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	pv, err := s.PortCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.ObjectWaitAsync(p, ev, pv, 31, api.SignalUser2, api.WaitAsyncOnce); err != nil {
		t.Fatal(err)
	}
	if err := s.ObjectSignal(p, ev, 0, api.SignalUser2); err != nil {
		t.Fatal(err)
	}

	pkt, err := s.PortWait(p, pv, api.DeadlinePast)
	if err != nil {
		t.Fatalf("port wait: %v", err)
	}
	if pkt.Key != 31 || pkt.Type != api.PacketTypeSignalOne {
		t.Fatalf("packet = %+v, want once-signal key 31", pkt)
	}
	if pkt.Signal.Observed&api.SignalUser2 == 0 {
		t.Errorf("observed = %x, missing trigger", pkt.Signal.Observed)
	}

	// Once means once.
	s.ObjectSignal(p, ev, api.SignalUser2, 0)
	s.ObjectSignal(p, ev, 0, api.SignalUser2)
	if _, err := s.PortWait(p, pv, api.DeadlinePast); api.StatusOf(err) != api.StatusTimedOut {
		t.Errorf("spent binding produced another packet: %v", err)
	}
}

func TestWaitAsyncBadOptions(t *testing.T) {
	s, p := newTestSystem(t)
	ev, _ := s.EventCreate(p, 0)
	pv, _ := s.PortCreate(p, 0)
	if err := s.ObjectWaitAsync(p, ev, pv, 1, api.SignalUser0, 99); api.StatusOf(err) != api.StatusInvalidArgs {
		t.Errorf("bad options returned %v, want invalid args", err)
	}
	if err := s.ObjectWaitAsync(p, ev, pv, 1, 0, api.WaitAsyncOnce); api.StatusOf(err) != api.StatusInvalidArgs {
		t.Errorf("empty mask returned %v, want invalid args", err)
	}
}

func TestPortCancelStopsRepeatingBinding(t *testing.T) {
	s, p := newTestSystem(t)
	ev, _ := s.EventCreate(p, 0)
	pv, _ := s.PortCreate(p, 0)

	if err := s.ObjectWaitAsync(p, ev, pv, 8, api.SignalUser1, api.WaitAsyncRepeating); err != nil {
		t.Fatal(err)
	}
	s.ObjectSignal(p, ev, 0, api.SignalUser1)
	if err := s.PortCancel(p, pv, ev, 8); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// The queued packet was flushed and the binding is gone.
	if _, err := s.PortWait(p, pv, api.DeadlinePast); api.StatusOf(err) != api.StatusTimedOut {
		t.Errorf("flushed port still has packets: %v", err)
	}
	s.ObjectSignal(p, ev, api.SignalUser1, 0)
	s.ObjectSignal(p, ev, 0, api.SignalUser1)
	if _, err := s.PortWait(p, pv, api.DeadlinePast); api.StatusOf(err) != api.StatusTimedOut {
		t.Errorf("cancelled binding still delivers: %v", err)
	}
	if err := s.PortCancel(p, pv, ev, 8); api.StatusOf(err) != api.StatusNotFound {
		t.Errorf("second cancel returned %v, want not found", err)
	}
}

func TestCloseLastHandleCancelsWaiter(t *testing.T) {
	s, p := newTestSystem(t)
	v, err := s.EventCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var observed api.Signals
	var werr error
	go func() {
		observed, werr = s.ObjectWaitOne(p, v, api.EventSignaled, sched.DeadlineAfter(5*time.Second))
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := s.HandleClose(p, v); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waiter not woken by handle close")
	}
	if api.StatusOf(werr) != api.StatusCanceled {
		t.Fatalf("wait returned %v, want canceled", werr)
	}
	if observed&api.SignalHandleClosed == 0 {
		t.Errorf("observed = %x, missing HANDLE_CLOSED", observed)
	}
}

func TestWaitOneDeadlines(t *testing.T) {
	s, p := newTestSystem(t)
	v, _ := s.EventCreate(p, 0)

	if _, err := s.ObjectWaitOne(p, v, api.EventSignaled, api.DeadlinePast); api.StatusOf(err) != api.StatusTimedOut {
		t.Errorf("past deadline returned %v, want timed out", err)
	}
	observed, err := s.ObjectWaitOne(p, v, api.EventSignaled, sched.DeadlineAfter(30*time.Millisecond))
	if api.StatusOf(err) != api.StatusTimedOut {
		t.Errorf("expired wait returned %v, want timed out", err)
	}
	if observed&api.EventSignaled != 0 {
		t.Errorf("timed-out wait observed %x", observed)
	}
}

func TestHandleErrors(t *testing.T) {
	s, p := newTestSystem(t)
	if err := s.HandleClose(p, api.HandleValue(0xdeadbeef)); api.StatusOf(err) != api.StatusBadHandle {
		t.Errorf("bogus close returned %v, want bad handle", err)
	}
	if _, err := s.EventCreate(p, 1); api.StatusOf(err) != api.StatusInvalidArgs {
		t.Errorf("nonzero options returned %v, want invalid args", err)
	}

	ev, _ := s.EventCreate(p, 0)
	if err := s.PortQueue(p, ev, &api.Packet{Type: api.PacketTypeUser}); api.StatusOf(err) != api.StatusWrongType {
		t.Errorf("port op on event returned %v, want wrong type", err)
	}
}

func TestHandleValuesDoNotCrossProcesses(t *testing.T) {
	s, root := newTestSystem(t)
	child, _, err := s.ProcessCreate(root, "child")
	if err != nil {
		t.Fatal(err)
	}
	v, err := s.EventCreate(root, 0)
	if err != nil {
		t.Fatal(err)
	}
	// The same numeric value means nothing in another process's table.
	if err := s.ObjectSignal(child, v, 0, api.SignalUser0); api.StatusOf(err) != api.StatusBadHandle {
		t.Errorf("foreign table resolved the value: %v", err)
	}
}

func TestTableCapacityThroughSyscalls(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HandleTableCapacity = 3
	s := NewSystem(cfg)
	p, _, err := s.CreateProcess("small")
	if err != nil {
		t.Fatal(err)
	}
	// Slot 1 is the process's own handle.
	v, err := s.EventCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.HandleDuplicate(p, v, api.RightSameRights); err != nil {
		t.Fatal(err)
	}
	if _, err := s.HandleDuplicate(p, v, api.RightSameRights); api.StatusOf(err) != api.StatusNoMemory {
		t.Fatalf("duplicate into a full table returned %v, want no memory", err)
	}
	// The failed duplicate left the source untouched.
	if err := s.ObjectSignal(p, v, 0, api.SignalUser0); err != nil {
		t.Errorf("source handle broken after failed duplicate: %v", err)
	}
}

func TestFifoSyscalls(t *testing.T) {
	s, p := newTestSystem(t)
	v0, v1, err := s.FifoCreate(p, 4, 2)
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.FifoWrite(p, v0, []byte{1, 2, 3, 4})
	if err != nil || n != 2 {
		t.Fatalf("write = %d, %v, want 2 elements", n, err)
	}
	dst := make([]byte, 4)
	n, err = s.FifoRead(p, v1, dst)
	if err != nil || n != 2 {
		t.Fatalf("read = %d, %v, want 2 elements", n, err)
	}
	if dst[0] != 1 || dst[3] != 4 {
		t.Errorf("read back %v", dst)
	}
	if _, err := s.FifoRead(p, v1, dst); api.StatusOf(err) != api.StatusShouldWait {
		t.Errorf("empty read returned %v, want should wait", err)
	}

	// A read-only duplicate cannot write.
	ro, err := s.HandleDuplicate(p, v1, api.RightRead|api.RightWait)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.FifoWrite(p, ro, []byte{1, 2}); api.StatusOf(err) != api.StatusAccessDenied {
		t.Errorf("write via read-only handle returned %v, want access denied", err)
	}

	if _, _, err := s.FifoCreate(p, 4, 100000); api.StatusOf(err) != api.StatusOutOfRange {
		t.Errorf("oversized fifo returned %v, want out of range", err)
	}
}

func TestGuestSyscalls(t *testing.T) {
	s, p := newTestSystem(t)
	gv, err := s.GuestCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}
	pv, err := s.PortCreate(p, 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.GuestSetTrap(p, gv, 0x4000, pv, 55); err != nil {
		t.Fatal(err)
	}
	if err := s.GuestBell(p, gv, 0x4000); err != nil {
		t.Fatal(err)
	}

	pkt, err := s.PortWait(p, pv, api.DeadlinePast)
	if err != nil {
		t.Fatalf("port wait: %v", err)
	}
	if pkt.Type != api.PacketTypeGuestBell || pkt.Key != 55 || pkt.Bell.Addr != 0x4000 {
		t.Fatalf("packet = %+v, want bell key 55 addr 0x4000", pkt)
	}

	if err := s.GuestBell(p, gv, 0x9999); api.StatusOf(err) != api.StatusNotFound {
		t.Errorf("unbound bell returned %v, want not found", err)
	}
}

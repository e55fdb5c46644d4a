package handle_test

import (
	"testing"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/core/handle"
	"github.com/momentics/kobject/core/object"
)

func newEventHandle() (*object.Event, *handle.Handle) {
	ev, rights := object.NewEvent()
	return ev, handle.Adopt(ev, rights)
}

func TestTableAddGetRemove(t *testing.T) {
	tbl := handle.NewTable(1001, 64)
	ev, h := newEventHandle()

	v, err := tbl.Add(h)
	if err != nil {
		t.Fatal(err)
	}
	if v == api.HandleInvalid {
		t.Fatal("add returned the invalid value")
	}
	if h.Owner() != tbl.Owner() || h.Value() != v {
		t.Errorf("handle not stamped: owner=%d value=%d", h.Owner(), h.Value())
	}

	d, rights, err := tbl.GetDispatcher(v, api.RightSignal)
	if err != nil {
		t.Fatal(err)
	}
	if d.Koid() != ev.Koid() {
		t.Error("lookup resolved the wrong dispatcher")
	}
	if !rights.Contains(api.RightSignal) {
		t.Error("granted rights missing SIGNAL")
	}

	if _, _, err := tbl.GetDispatcher(v, api.RightExecute); api.StatusOf(err) != api.StatusAccessDenied {
		t.Errorf("lookup with unheld right returned %v, want access denied", err)
	}
	if _, err := tbl.Get(api.HandleInvalid, api.RightNone); api.StatusOf(err) != api.StatusBadHandle {
		t.Errorf("invalid value returned %v, want bad handle", err)
	}

	removed, err := tbl.Remove(v)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Get(v, api.RightNone); api.StatusOf(err) != api.StatusBadHandle {
		t.Errorf("removed value still resolves: %v", err)
	}
	removed.Close()
	if tbl.Count() != 0 {
		t.Errorf("count = %d, want 0", tbl.Count())
	}
}

func TestTableStaleValueMissesAfterReuse(t *testing.T) {
	tbl := handle.NewTable(1002, 64)
	_, h1 := newEventHandle()
	v1, err := tbl.Add(h1)
	if err != nil {
		t.Fatal(err)
	}
	removed, _ := tbl.Remove(v1)
	removed.Close()

	// The freed slot is reused; the old value's generation no longer matches.
	_, h2 := newEventHandle()
	v2, err := tbl.Add(h2)
	if err != nil {
		t.Fatal(err)
	}
	if v2 == v1 {
		t.Fatal("reused slot produced an identical value")
	}
	if _, err := tbl.Get(v1, api.RightNone); api.StatusOf(err) != api.StatusBadHandle {
		t.Errorf("stale value resolved: %v", err)
	}
	if _, err := tbl.Get(v2, api.RightNone); err != nil {
		t.Errorf("fresh value failed: %v", err)
	}
}

func TestTableIsolation(t *testing.T) {
	tblA := handle.NewTable(2001, 64)
	tblB := handle.NewTable(2002, 64)

	_, h := newEventHandle()
	v, err := tblA.Add(h)
	if err != nil {
		t.Fatal(err)
	}
	// A value leaked across processes never resolves in another table.
	if _, err := tblB.Get(v, api.RightNone); api.StatusOf(err) != api.StatusBadHandle {
		t.Errorf("foreign table resolved the value: %v", err)
	}
}

func TestTableCapacity(t *testing.T) {
	tbl := handle.NewTable(3001, 2)
	for i := 0; i < 2; i++ {
		_, h := newEventHandle()
		if _, err := tbl.Add(h); err != nil {
			t.Fatal(err)
		}
	}
	ev, h := newEventHandle()
	if _, err := tbl.Add(h); api.StatusOf(err) != api.StatusNoMemory {
		t.Fatalf("over-capacity add returned %v, want no memory", err)
	}
	// The rejected handle is untouched and still closeable.
	if h.Value() != api.HandleInvalid {
		t.Error("rejected handle was stamped with a value")
	}
	h.Close()
	if got := ev.RefCount(); got != 0 {
		t.Errorf("rejected handle leaked a reference: refcount=%d", got)
	}
}

func TestTableDuplicate(t *testing.T) {
	tbl := handle.NewTable(4001, 64)
	ev, h := newEventHandle()
	v, err := tbl.Add(h)
	if err != nil {
		t.Fatal(err)
	}

	nv, err := tbl.Duplicate(v, api.RightWait)
	if err != nil {
		t.Fatal(err)
	}
	if nv == v {
		t.Fatal("duplicate returned the source value")
	}
	if _, _, err := tbl.GetDispatcher(nv, api.RightSignal); api.StatusOf(err) != api.StatusAccessDenied {
		t.Errorf("narrowed duplicate still grants SIGNAL: %v", err)
	}
	if got := ev.RefCount(); got != 2 {
		t.Errorf("refcount = %d, want 2", got)
	}

	if _, err := tbl.Duplicate(v, api.RightExecute); api.StatusOf(err) != api.StatusAccessDenied {
		t.Errorf("widening duplicate returned %v, want access denied", err)
	}
}

func TestTableDuplicateAtCapacityLeavesSourceValid(t *testing.T) {
	tbl := handle.NewTable(5001, 1)
	ev, h := newEventHandle()
	v, err := tbl.Add(h)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tbl.Duplicate(v, api.RightSameRights); api.StatusOf(err) != api.StatusNoMemory {
		t.Fatalf("duplicate at capacity returned %v, want no memory", err)
	}
	// The failed duplicate left no reference behind and the source works.
	if got := ev.RefCount(); got != 1 {
		t.Errorf("refcount = %d after failed duplicate, want 1", got)
	}
	if _, err := tbl.Get(v, api.RightNone); err != nil {
		t.Errorf("source handle broken after failed duplicate: %v", err)
	}
}

func TestTableClearClosesEverything(t *testing.T) {
	tbl := handle.NewTable(6001, 64)

	ep0, ep1, rights := object.NewEventPair()
	if _, err := tbl.Add(handle.Adopt(ep0, rights)); err != nil {
		t.Fatal(err)
	}
	outside := handle.Adopt(ep1, rights)
	ev, h := newEventHandle()
	if _, err := tbl.Add(h); err != nil {
		t.Fatal(err)
	}

	if got := tbl.Clear(); got != 2 {
		t.Fatalf("clear closed %d handles, want 2", got)
	}
	if tbl.Count() != 0 {
		t.Errorf("count = %d after clear, want 0", tbl.Count())
	}
	if got := ev.RefCount(); got != 0 {
		t.Errorf("event refcount = %d after clear, want 0", got)
	}
	if ep1.State()&api.EventPairPeerClosed == 0 {
		t.Error("clear did not cascade peer teardown")
	}
	outside.Close()
}

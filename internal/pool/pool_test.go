package pool

import "testing"

func TestPool_InsertAndIterOrder(t *testing.T) {
	p := New()
	p.Insert(Entry{ClientID: "a", JoinedAtNanos: 1})
	p.Insert(Entry{ClientID: "b", JoinedAtNanos: 2})
	p.Insert(Entry{ClientID: "c", JoinedAtNanos: 3})

	got := p.Iter()
	if len(got) != 3 {
		t.Fatalf("Iter() len = %d, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ClientID != want {
			t.Errorf("Iter()[%d].ClientID = %q, want %q", i, got[i].ClientID, want)
		}
	}
}

func TestPool_RemoveByID_PreservesOrder(t *testing.T) {
	p := New()
	p.Insert(Entry{ClientID: "a", JoinedAtNanos: 1})
	p.Insert(Entry{ClientID: "b", JoinedAtNanos: 2})
	p.Insert(Entry{ClientID: "c", JoinedAtNanos: 3})

	if ok := p.RemoveByID("b"); !ok {
		t.Fatal("RemoveByID(b) = false, want true")
	}

	got := p.Iter()
	if len(got) != 2 || got[0].ClientID != "a" || got[1].ClientID != "c" {
		t.Errorf("Iter() after remove = %v, want [a c]", got)
	}
	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
}

func TestPool_RemoveByID_Idempotent(t *testing.T) {
	p := New()
	p.Insert(Entry{ClientID: "a"})

	if ok := p.RemoveByID("a"); !ok {
		t.Fatal("first RemoveByID(a) = false, want true")
	}
	if ok := p.RemoveByID("a"); ok {
		t.Fatal("second RemoveByID(a) = true, want false")
	}
}

func TestPool_RemoveByID_ReindexesSurvivors(t *testing.T) {
	p := New()
	p.Insert(Entry{ClientID: "a"})
	p.Insert(Entry{ClientID: "b"})
	p.Insert(Entry{ClientID: "c"})

	p.RemoveByID("a")
	// c's internal index must now point at slot 1, not 2, or a later
	// RemoveByID("c") would corrupt the wrong slice element.
	if ok := p.RemoveByID("c"); !ok {
		t.Fatal("RemoveByID(c) = false, want true")
	}
	got := p.Iter()
	if len(got) != 1 || got[0].ClientID != "b" {
		t.Errorf("Iter() = %v, want [b]", got)
	}
}

func TestPool_NoDuplicateClientIDInvariant(t *testing.T) {
	p := New()
	p.Insert(Entry{ClientID: "a"})
	p.RemoveByID("a")
	p.Insert(Entry{ClientID: "a"})

	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

package dispatcher

import (
	"testing"
)

func TestDispatch_RoutesToRegisteredHandler(t *testing.T) {
	d := New()
	var gotClient string
	var gotRaw []byte
	d.Register("find_partner", func(clientID string, raw []byte) {
		gotClient = clientID
		gotRaw = raw
	})

	d.Dispatch("client-1", []byte(`{"type":"find_partner","interests":["music"]}`))

	if gotClient != "client-1" {
		t.Errorf("clientID = %q, want client-1", gotClient)
	}
	if string(gotRaw) != `{"type":"find_partner","interests":["music"]}` {
		t.Errorf("raw = %s", gotRaw)
	}
}

func TestDispatch_DropsMalformedFrame(t *testing.T) {
	d := New()
	called := false
	d.Register("find_partner", func(string, []byte) { called = true })

	d.Dispatch("client-1", []byte(`not json`))

	if called {
		t.Error("handler called for malformed frame, want dropped")
	}
}

func TestDispatch_DropsUnregisteredType(t *testing.T) {
	d := New()
	called := false
	d.Register("find_partner", func(string, []byte) { called = true })

	d.Dispatch("client-1", []byte(`{"type":"unknown_event"}`))

	if called {
		t.Error("handler called for unregistered type, want dropped")
	}
}

func TestDispatch_LaterRegisterReplacesEarlier(t *testing.T) {
	d := New()
	var which string
	d.Register("skip", func(string, []byte) { which = "first" })
	d.Register("skip", func(string, []byte) { which = "second" })

	d.Dispatch("client-1", []byte(`{"type":"skip"}`))

	if which != "second" {
		t.Errorf("which = %q, want second", which)
	}
}

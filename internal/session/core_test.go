package session

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/driftline/signalcore/internal/pool"
	"github.com/driftline/signalcore/internal/protocol"
)

// recorder is a test Emitter that captures every emitted event per client.
type recorder struct {
	mu     sync.Mutex
	events map[string][]event
}

type event struct {
	typ  string
	data map[string]interface{}
}

func newRecorder() *recorder {
	return &recorder{events: make(map[string][]event)}
}

func (r *recorder) Emit(clientID string, data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[clientID] = append(r.events[clientID], event{typ: m["type"].(string), data: m})
	return nil
}

func (r *recorder) last(clientID string) (event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.events[clientID]
	if len(evs) == 0 {
		return event{}, false
	}
	return evs[len(evs)-1], true
}

func (r *recorder) count(clientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[clientID])
}

func rawInterests(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal interests: %v", err)
	}
	return b
}

// newTestCore returns a Core whose clock is driven by a plain counter so
// FIFO ordering in tests is deterministic regardless of wall-clock speed.
func newTestCore(r *recorder) *Core {
	c := New(r)
	tick := int64(0)
	c.now = func() int64 {
		tick++
		return tick
	}
	return c
}

func TestCore_ExactInterestPair(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("a")
	c.Connect("b")

	c.FindPartner("a", rawInterests(t, "music"))
	ev, ok := r.last("a")
	if !ok || ev.typ != protocol.TypeWaiting {
		t.Fatalf("a's last event = %+v, want waiting", ev)
	}

	c.FindPartner("b", rawInterests(t, "Music"))

	evA, _ := r.last("a")
	if evA.typ != protocol.TypePartnerFound || evA.data["partnerId"] != "b" {
		t.Errorf("a's event = %+v, want partner_found(b)", evA)
	}
	evB, _ := r.last("b")
	if evB.typ != protocol.TypePartnerFound || evB.data["partnerId"] != "a" {
		t.Errorf("b's event = %+v, want partner_found(a)", evB)
	}

	if c.pool.Len() != 0 {
		t.Errorf("pool.Len() = %d, want 0", c.pool.Len())
	}
}

func TestCore_BestMatchWinsOverFIFO(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("x")
	c.Connect("y")
	c.Connect("z")

	c.FindPartner("x", rawInterests(t, "music"))
	// y is placed in the pool directly: through FindPartner it would share
	// "music" with the waiting x and pair with x at once.
	c.pool.Insert(pool.Entry{ClientID: "y", Interests: []string{"music", "movies"}, JoinedAtNanos: c.now()})
	c.clients["y"].state = Waiting
	c.FindPartner("z", rawInterests(t, []string{"music", "movies"}))

	evZ, _ := r.last("z")
	if evZ.data["partnerId"] != "y" {
		t.Errorf("z paired with %v, want y", evZ.data["partnerId"])
	}
	// x should still be waiting.
	evX, _ := r.last("x")
	if evX.typ != protocol.TypeWaiting {
		t.Errorf("x's last event = %+v, want still waiting", evX)
	}
}

func TestCore_StrictRandomSemantics(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("x")
	c.Connect("candidate")
	c.Connect("d")

	c.FindPartner("x", rawInterests(t, "music"))
	c.FindPartner("candidate", rawInterests(t, "")) // normalizes to [random]

	evCandidate, _ := r.last("candidate")
	if evCandidate.typ != protocol.TypeWaiting {
		t.Fatalf("candidate's event = %+v, want waiting (no match against music)", evCandidate)
	}

	c.FindPartner("d", rawInterests(t, "random"))
	evD, _ := r.last("d")
	if evD.typ != protocol.TypePartnerFound || evD.data["partnerId"] != "candidate" {
		t.Errorf("d's event = %+v, want partner_found(candidate)", evD)
	}
}

func TestCore_SkipReMatchesInitiatorOnly(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("a")
	c.Connect("b")

	c.FindPartner("a", rawInterests(t, "music"))
	c.FindPartner("b", rawInterests(t, "music"))

	countB := r.count("b")
	c.Skip("a", rawInterests(t, "games"))

	evB, _ := r.last("b")
	if evB.typ != protocol.TypePartnerDisconnected {
		t.Errorf("b's event = %+v, want partner_disconnected", evB)
	}
	if r.count("b") != countB+1 {
		t.Errorf("b received %d new events, want exactly 1 (partner_disconnected)", r.count("b")-countB)
	}

	if rec := c.clients["b"]; rec.state != Unregistered {
		t.Errorf("b's state = %v, want Unregistered", rec.state)
	}
	if _, inPool := poolContains(c, "b"); inPool {
		t.Error("b should not be auto-requeued after being skipped")
	}

	evA, _ := r.last("a")
	if evA.typ != protocol.TypeWaiting {
		t.Errorf("a's event = %+v, want waiting (re-matched with new interests)", evA)
	}
}

func TestCore_DisconnectMidPair(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("a")
	c.Connect("b")

	c.FindPartner("a", rawInterests(t, "music"))
	c.FindPartner("b", rawInterests(t, "music"))

	c.Disconnect("a")

	evB, _ := r.last("b")
	if evB.typ != protocol.TypePartnerDisconnected {
		t.Errorf("b's event = %+v, want partner_disconnected", evB)
	}
	if _, ok := c.reg.PartnerOf("b"); ok {
		t.Error("b still has a registered partner after a's disconnect")
	}
	if _, ok := c.clients["a"]; ok {
		t.Error("a's client record should be fully removed after disconnect")
	}
}

func TestCore_EchoLaw(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("a")
	c.Connect("b")
	c.FindPartner("a", rawInterests(t, "music"))
	c.FindPartner("b", rawInterests(t, "music"))

	c.SendMessage("a", "hello")

	evB, _ := r.last("b")
	if evB.typ != protocol.TypeReceiveMessage || evB.data["sender"] != "partner" || evB.data["text"] != "hello" {
		t.Errorf("b's event = %+v, want receive_message{sender:partner,text:hello}", evB)
	}
	evA, _ := r.last("a")
	if evA.typ != protocol.TypeReceiveMessage || evA.data["sender"] != "me" || evA.data["text"] != "hello" {
		t.Errorf("a's event = %+v, want receive_message{sender:me,text:hello}", evA)
	}
}

func TestCore_SendMessage_DroppedWhenUnpaired(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("a")

	c.SendMessage("a", "hello")
	if r.count("a") != 0 {
		t.Errorf("a received %d events, want 0 for send_message while unpaired", r.count("a"))
	}
}

func TestCore_Answer_DroppedWhenToIsNotPartner(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("a")
	c.Connect("b")
	c.Connect("eve")
	c.FindPartner("a", rawInterests(t, "music"))
	c.FindPartner("b", rawInterests(t, "music"))

	c.Answer("a", "eve", rawInterests(t, map[string]string{"sdp": "x"}))
	if r.count("eve") != 0 {
		t.Errorf("eve received %d events, want 0 (answer to non-partner must be dropped)", r.count("eve"))
	}
}

func TestCore_LeaveChatForgetsInterests(t *testing.T) {
	r := newRecorder()
	c := newTestCore(r)
	c.Connect("a")
	c.Connect("b")
	c.FindPartner("a", rawInterests(t, "music"))
	c.FindPartner("b", rawInterests(t, "music"))

	c.LeaveChat("a")

	if rec := c.clients["a"]; rec.state != Unregistered || rec.interests != nil {
		t.Errorf("a's record = %+v, want Unregistered with no remembered interests", rec)
	}
}

func poolContains(c *Core, clientID string) (int, bool) {
	for i, e := range c.pool.Iter() {
		if e.ClientID == clientID {
			return i, true
		}
	}
	return -1, false
}

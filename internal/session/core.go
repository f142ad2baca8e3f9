// Package session implements the Session State Machine and the single
// in-memory authority described in spec.md §4.5 and §5: Core owns the
// Waiting Pool, the Pair Registry, and every client's remembered
// interests and lifecycle state behind one mutex, and exposes one method
// per inbound event in the wire protocol.
package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/driftline/signalcore/internal/interest"
	"github.com/driftline/signalcore/internal/matching"
	"github.com/driftline/signalcore/internal/metrics"
	"github.com/driftline/signalcore/internal/pool"
	"github.com/driftline/signalcore/internal/protocol"
	"github.com/driftline/signalcore/internal/registry"
)

// State is a client's position in the lifecycle of spec.md §3.
type State int

const (
	Unregistered State = iota
	Waiting
	Paired
	Closed
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Waiting:
		return "waiting"
	case Paired:
		return "paired"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Emitter delivers a server event's JSON-encoded bytes to a specific
// client. It is implemented by the transport layer (internal/ws.Server).
type Emitter interface {
	Emit(clientID string, data []byte) error
}

type client struct {
	state     State
	interests []string
}

// Core is the single critical section guarding the Waiting Pool, Pair
// Registry, and per-client state. Every exported method acquires mu for
// its full duration. Outbound events are handed to the Emitter while mu is
// held, so an Emitter that blocks (internal/ws.Server writes each frame to
// the socket synchronously, bounded by its write timeout) holds up every
// other Core method until it returns.
type Core struct {
	mu      sync.Mutex
	clients map[string]*client
	pool    *pool.Pool
	reg     *registry.Registry
	emit    Emitter
	now     func() int64 // monotonic nanos; overridable in tests
}

// New returns a Core that emits outbound events through emit.
func New(emit Emitter) *Core {
	return &Core{
		clients: make(map[string]*client),
		pool:    pool.New(),
		reg:     registry.New(),
		emit:    emit,
		now:     func() int64 { return time.Now().UnixNano() },
	}
}

// Connect allocates lifecycle state for a newly accepted client. It is the
// only way a client ID becomes known to Core.
func (c *Core) Connect(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[clientID] = &client{state: Unregistered}
}

// Disconnect destroys all state referencing clientID in one atomic step.
// If the client was Paired, its partner is torn down and notified first.
func (c *Core) Disconnect(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok {
		return
	}
	if rec.state == Paired {
		c.teardown(clientID)
	}
	c.pool.RemoveByID(clientID)
	delete(c.clients, clientID)
	c.updatePoolMetric()
}

// FindPartner implements the find_partner event for any originating state.
// If the client is already Paired it is torn down first; it is then
// matched against the Waiting Pool or enqueued.
func (c *Core) FindPartner(clientID string, rawInterests json.RawMessage) {
	tags := interest.Normalize(protocol.DecodeInterests(rawInterests))

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok {
		return
	}

	if rec.state == Paired {
		c.teardown(clientID)
	} else {
		c.pool.RemoveByID(clientID) // defensive: re-issuing find_partner while Waiting
	}

	rec.interests = tags
	c.enterMatchmaking(clientID, tags)
}

// SendMessage implements send_message: valid only while Paired.
func (c *Core) SendMessage(clientID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok || rec.state != Paired {
		return
	}
	partner, ok := c.reg.PartnerOf(clientID)
	if !ok {
		return
	}

	c.emitTo(partner, protocol.TypeReceiveMessage, protocol.ReceiveMessageMsg{Sender: "partner", Text: text})
	c.emitTo(clientID, protocol.TypeReceiveMessage, protocol.ReceiveMessageMsg{Sender: "me", Text: text})
	metrics.RelayedTotal.WithLabelValues(protocol.TypeSendMessage).Inc()
}

// Offer implements offer: forwarded to the partner untouched, tagged with
// the sender's ID.
func (c *Core) Offer(clientID string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok || rec.state != Paired {
		return
	}
	partner, ok := c.reg.PartnerOf(clientID)
	if !ok {
		return
	}

	c.emitTo(partner, protocol.TypeOffer, protocol.ServerOfferMsg{From: clientID, Offer: payload})
	metrics.RelayedTotal.WithLabelValues(protocol.TypeOffer).Inc()
}

// Answer implements answer: to must equal the sender's current partner, or
// the event is silently dropped (spec.md §7 invalid-state event).
func (c *Core) Answer(clientID, to string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok || rec.state != Paired {
		return
	}
	partner, ok := c.reg.PartnerOf(clientID)
	if !ok || partner != to {
		return
	}

	c.emitTo(to, protocol.TypeAnswer, protocol.ServerAnswerMsg{From: clientID, Answer: payload})
	metrics.RelayedTotal.WithLabelValues(protocol.TypeAnswer).Inc()
}

// IceCandidate implements ice-candidate: forwarded to the partner
// untouched, tagged with the sender's ID.
func (c *Core) IceCandidate(clientID string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok || rec.state != Paired {
		return
	}
	partner, ok := c.reg.PartnerOf(clientID)
	if !ok {
		return
	}

	c.emitTo(partner, protocol.TypeIceCandidate, protocol.ServerIceCandidateMsg{From: clientID, Candidate: payload})
	metrics.RelayedTotal.WithLabelValues(protocol.TypeIceCandidate).Inc()
}

// StopVideo implements stop_video: forwarded to the partner, no state
// change.
func (c *Core) StopVideo(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok || rec.state != Paired {
		return
	}
	partner, ok := c.reg.PartnerOf(clientID)
	if !ok {
		return
	}

	c.emitTo(partner, protocol.TypeStopVideo, protocol.ServerStopVideoMsg{})
	metrics.RelayedTotal.WithLabelValues(protocol.TypeStopVideo).Inc()
}

// Skip implements skip: valid only while Paired. It tears down the current
// pair — notifying the ex-partner, who is left Unregistered and is not
// auto-requeued — then re-enters matchmaking for clientID using
// rawInterests if supplied, or its previously remembered interests
// otherwise.
func (c *Core) Skip(clientID string, rawInterests json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok || rec.state != Paired {
		return
	}

	c.teardown(clientID)

	tags := rec.interests
	if len(rawInterests) > 0 {
		tags = interest.Normalize(protocol.DecodeInterests(rawInterests))
	}
	rec.interests = tags
	c.enterMatchmaking(clientID, tags)
}

// LeaveChat implements leaveChat: tears down a pair or leaves the pool,
// forgets remembered interests, and returns the client to Unregistered.
func (c *Core) LeaveChat(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.clients[clientID]
	if !ok {
		return
	}

	switch rec.state {
	case Paired:
		c.teardown(clientID)
	case Waiting:
		c.pool.RemoveByID(clientID)
		c.updatePoolMetric()
	}

	rec.interests = nil
	rec.state = Unregistered
}

// teardown unbinds clientID from its partner (if Paired) and notifies the
// ex-partner with partner_disconnected, the last event it will receive
// about this partner. The ex-partner is left Unregistered; it is not
// auto-requeued. Callers must hold mu.
func (c *Core) teardown(clientID string) {
	partner, ok := c.reg.Unbind(clientID)
	if !ok {
		return
	}
	if prec, ok := c.clients[partner]; ok {
		prec.state = Unregistered
	}
	c.emitTo(partner, protocol.TypePartnerDisconnected, protocol.PartnerDisconnectedMsg{})
	c.updatePairMetric()
}

// enterMatchmaking runs the Matcher against the current pool and either
// pairs clientID immediately or enqueues it. Callers must hold mu.
func (c *Core) enterMatchmaking(clientID string, tags []string) {
	entries := c.pool.Iter()
	match, ok := matching.FindBestMatch(tags, clientID, entries)
	if !ok {
		c.pool.Insert(pool.Entry{ClientID: clientID, Interests: tags, JoinedAtNanos: c.now()})
		c.setState(clientID, Waiting)
		c.updatePoolMetric()
		c.emitTo(clientID, protocol.TypeWaiting, protocol.WaitingMsg{Message: waitingDescription(tags)})
		return
	}

	c.pool.RemoveByID(clientID)
	c.pool.RemoveByID(match.ClientID)
	c.reg.Bind(clientID, match.ClientID)
	c.setState(clientID, Paired)
	c.setState(match.ClientID, Paired)
	c.updatePoolMetric()
	c.updatePairMetric()
	metrics.MatchWaitSeconds.Observe(float64(c.now()-match.JoinedAtNanos) / float64(time.Second))

	// partner_found is emitted to both before any subsequent pair event.
	c.emitTo(clientID, protocol.TypePartnerFound, protocol.PartnerFoundMsg{PartnerID: match.ClientID})
	c.emitTo(match.ClientID, protocol.TypePartnerFound, protocol.PartnerFoundMsg{PartnerID: clientID})
}

func (c *Core) setState(clientID string, s State) {
	if rec, ok := c.clients[clientID]; ok {
		rec.state = s
	}
}

// emitTo marshals payload into a server message and hands it to the
// Emitter. Failures are logged, never surfaced to any client, per spec.md
// §7's propagation policy.
func (c *Core) emitTo(clientID, eventType string, payload interface{}) {
	data, err := protocol.NewServerMessage(eventType, payload)
	if err != nil {
		log.Printf("session: failed to build %s for %s: %v", eventType, clientID, err)
		return
	}
	if c.emit == nil {
		return
	}
	if err := c.emit.Emit(clientID, data); err != nil {
		log.Printf("session: emit %s to %s failed: %v", eventType, clientID, err)
	}
}

func (c *Core) updatePoolMetric() {
	metrics.WaitingPoolSize.Set(float64(c.pool.Len()))
}

func (c *Core) updatePairMetric() {
	// Two entries per pair, one per client.
	paired := 0
	for _, rec := range c.clients {
		if rec.state == Paired {
			paired++
		}
	}
	metrics.ActivePairs.Set(float64(paired / 2))
}

func waitingDescription(tags []string) string {
	if len(tags) == 1 && tags[0] == interest.Random {
		return "Looking for a random partner"
	}
	msg := "Looking for a partner interested in:"
	for i, t := range tags {
		if i > 0 {
			msg += ","
		}
		msg += " " + t
	}
	return msg
}

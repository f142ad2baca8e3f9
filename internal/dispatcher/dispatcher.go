// Package dispatcher routes inbound wire events to registered handlers by
// their "type" discriminator. It is the Event Dispatcher of spec.md §4.6: it
// never talks back to the client directly — a malformed envelope or an
// unregistered type is logged and dropped, never answered with an error
// frame.
package dispatcher

import (
	"log"

	"github.com/driftline/signalcore/internal/protocol"
)

// Handler processes one decoded event for clientID. raw is the full
// envelope body (including "type"), to be unmarshaled into the concrete
// protocol.*Msg struct the handler expects.
type Handler func(clientID string, raw []byte)

// Dispatcher routes raw client frames to per-type Handlers.
type Dispatcher struct {
	handlers map[string]Handler
}

// New returns an empty Dispatcher. Register handlers before calling Dispatch.
func New() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register associates handler with msgType. A later call for the same type
// silently replaces the earlier one.
func (d *Dispatcher) Register(msgType string, handler Handler) {
	d.handlers[msgType] = handler
}

// Dispatch parses data's envelope and routes it to the handler registered
// for its type. Parse failures and unknown types are logged and dropped —
// the protocol defines no error reply.
func (d *Dispatcher) Dispatch(clientID string, data []byte) {
	var env protocol.Envelope
	if err := env.UnmarshalJSON(data); err != nil {
		log.Printf("dispatcher: dropping malformed frame from %s: %v", clientID, err)
		return
	}

	handler, ok := d.handlers[env.Type]
	if !ok {
		log.Printf("dispatcher: dropping frame with unregistered type %q from %s", env.Type, clientID)
		return
	}

	handler(clientID, env.Raw)
}

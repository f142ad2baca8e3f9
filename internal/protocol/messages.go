// Package protocol defines the wire event vocabulary spoken between a
// client and the core. All messages are JSON with a "type" discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Client -> server event types.
const (
	TypeFindPartner  = "find_partner"
	TypeSendMessage  = "send_message"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeIceCandidate = "ice-candidate"
	TypeStopVideo    = "stop_video"
	TypeSkip         = "skip"
	TypeLeaveChat    = "leaveChat"
)

// Server -> client event types. offer/answer/ice-candidate/stop_video are
// opaque relays and reuse the same type string in both directions.
const (
	TypeWaiting             = "waiting"
	TypePartnerFound        = "partner_found"
	TypeReceiveMessage      = "receive_message"
	TypePartnerDisconnected = "partner_disconnected"
)

// Envelope captures the "type" discriminator on first unmarshal and defers
// decoding the rest of the payload until the concrete type is known.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler. It stores the full raw bytes
// for deferred decoding and extracts only the "type" field.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------
// Client -> server payloads
// ---------------------------------------------------------------------

// FindPartnerMsg carries the candidate's raw interests, either a single
// (possibly comma-separated) string or an array of strings. Decode into
// interest.Normalize's accepted input via DecodeInterests.
type FindPartnerMsg struct {
	Type      string          `json:"type"`
	Interests json.RawMessage `json:"interests"`
}

// SendMessageMsg is a text message to relay to the partner.
type SendMessageMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OfferMsg carries an opaque SDP offer forwarded to the partner untouched.
type OfferMsg struct {
	Type  string          `json:"type"`
	Offer json.RawMessage `json:"offer"`
}

// AnswerMsg carries an opaque SDP answer plus the explicit recipient ID,
// which must equal the sender's partner.
type AnswerMsg struct {
	Type   string          `json:"type"`
	To     string          `json:"to"`
	Answer json.RawMessage `json:"answer"`
}

// IceCandidateMsg carries an opaque ICE candidate forwarded to the partner.
type IceCandidateMsg struct {
	Type      string          `json:"type"`
	Candidate json.RawMessage `json:"candidate"`
}

// StopVideoMsg signals that video should stop; it carries no payload.
type StopVideoMsg struct {
	Type string `json:"type"`
}

// SkipMsg tears down the current pair and re-enters matchmaking. Interests
// is optional; when absent the client's previously remembered interests
// are reused.
type SkipMsg struct {
	Type      string          `json:"type"`
	Interests json.RawMessage `json:"interests,omitempty"`
}

// LeaveChatMsg tears down the current pair (if any) and returns the client
// to Unregistered, forgetting its remembered interests.
type LeaveChatMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------
// Server -> client payloads
// ---------------------------------------------------------------------

// WaitingMsg tells the client it has been enqueued, with a human-readable
// description of what it is waiting for.
type WaitingMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PartnerFoundMsg announces a new pair; PartnerID is the counterpart's
// client ID.
type PartnerFoundMsg struct {
	Type      string `json:"type"`
	PartnerID string `json:"partnerId"`
}

// ReceiveMessageMsg relays a chat message. Sender is "me" for the echo back
// to the author, "partner" for the copy delivered to the other side.
type ReceiveMessageMsg struct {
	Type   string `json:"type"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ServerOfferMsg is the relayed form of OfferMsg, tagged with the sender.
type ServerOfferMsg struct {
	Type  string          `json:"type"`
	From  string          `json:"from"`
	Offer json.RawMessage `json:"offer"`
}

// ServerAnswerMsg is the relayed form of AnswerMsg, tagged with the sender.
type ServerAnswerMsg struct {
	Type   string          `json:"type"`
	From   string          `json:"from"`
	Answer json.RawMessage `json:"answer"`
}

// ServerIceCandidateMsg is the relayed form of IceCandidateMsg, tagged with
// the sender.
type ServerIceCandidateMsg struct {
	Type      string          `json:"type"`
	From      string          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}

// ServerStopVideoMsg is the relayed stop_video notification.
type ServerStopVideoMsg struct {
	Type string `json:"type"`
}

// PartnerDisconnectedMsg tells a client its partner is gone — the last
// event it will receive about that partner.
type PartnerDisconnectedMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------

// DecodeInterests decodes a raw "interests" field into either a string or a
// []string for interest.Normalize, tolerating an absent/empty field by
// returning nil (callers treat that as "reuse remembered interests" or
// "no preference" depending on context).
func DecodeInterests(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return nil
}

// NewServerMessage marshals payload to JSON and injects msgType under the
// "type" key, so that Server*Msg structs do not need their own Type field
// populated by callers.
func NewServerMessage(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: unmarshal payload into map: %w", err)
	}
	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal server message: %w", err)
	}
	return out, nil
}

package protocol

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEnvelope_UnmarshalJSON_CapturesTypeAndRaw(t *testing.T) {
	data := []byte(`{"type":"find_partner","interests":["music"]}`)
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if env.Type != TypeFindPartner {
		t.Errorf("Type = %q, want %q", env.Type, TypeFindPartner)
	}

	var msg FindPartnerMsg
	if err := json.Unmarshal(env.Raw, &msg); err != nil {
		t.Fatalf("Unmarshal(env.Raw) error = %v", err)
	}
	var interests []string
	if err := json.Unmarshal(msg.Interests, &interests); err != nil {
		t.Fatalf("Unmarshal(msg.Interests) error = %v", err)
	}
	if !reflect.DeepEqual(interests, []string{"music"}) {
		t.Errorf("interests = %v, want [music]", interests)
	}
}

func TestEnvelope_UnmarshalJSON_MissingType(t *testing.T) {
	var env Envelope
	err := json.Unmarshal([]byte(`{"foo":"bar"}`), &env)
	if err == nil {
		t.Fatal("Unmarshal() error = nil, want error for missing type")
	}
}

func TestEnvelope_UnmarshalJSON_Malformed(t *testing.T) {
	var env Envelope
	err := json.Unmarshal([]byte(`not json`), &env)
	if err == nil {
		t.Fatal("Unmarshal() error = nil, want error for malformed JSON")
	}
}

func TestDecodeInterests_StringAndList(t *testing.T) {
	if got := DecodeInterests(json.RawMessage(`"music,movies"`)); got != "music,movies" {
		t.Errorf("DecodeInterests(string) = %v, want %q", got, "music,movies")
	}

	got := DecodeInterests(json.RawMessage(`["music","movies"]`))
	list, ok := got.([]string)
	if !ok || !reflect.DeepEqual(list, []string{"music", "movies"}) {
		t.Errorf("DecodeInterests(list) = %v", got)
	}
}

func TestDecodeInterests_EmptyReturnsNil(t *testing.T) {
	if got := DecodeInterests(nil); got != nil {
		t.Errorf("DecodeInterests(nil) = %v, want nil", got)
	}
	if got := DecodeInterests(json.RawMessage(``)); got != nil {
		t.Errorf("DecodeInterests(empty) = %v, want nil", got)
	}
}

func TestNewServerMessage_InjectsType(t *testing.T) {
	data, err := NewServerMessage(TypePartnerFound, PartnerFoundMsg{PartnerID: "abc"})
	if err != nil {
		t.Fatalf("NewServerMessage() error = %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m["type"] != TypePartnerFound {
		t.Errorf("type = %v, want %q", m["type"], TypePartnerFound)
	}
	if m["partnerId"] != "abc" {
		t.Errorf("partnerId = %v, want abc", m["partnerId"])
	}
}

package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	e := NewEvent(EventActionLogCreated, map[string]any{"partner_contact_id": "c-1"})

	if e.Type != EventActionLogCreated {
		t.Errorf("Type = %q", e.Type)
	}
	if e.OccurredAt.Before(before) {
		t.Errorf("OccurredAt = %v, before %v", e.OccurredAt, before)
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Payload["partner_contact_id"] != "c-1" {
		t.Errorf("payload = %v", decoded.Payload)
	}
}

package trigger

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventMarshalsFlat(t *testing.T) {
	ev := Event{
		Kind:      PoolTvlChanged,
		Fields:    map[string]any{"previousTvl": 100.0, "currentTvl": 120.0},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if raw["event"] != "poolTvlChanged" {
		t.Errorf("event = %v", raw["event"])
	}
	if raw["timestamp"] != "2025-06-01T12:00:00Z" {
		t.Errorf("timestamp = %v", raw["timestamp"])
	}
	if raw["previousTvl"] != 100.0 {
		t.Errorf("fields not inlined: %v", raw)
	}
	if _, nested := raw["fields"]; nested {
		t.Error("fields must not nest under a sub-object")
	}
}

func TestEventUnmarshal(t *testing.T) {
	payload := `{"event":"cvxPriceAlert","timestamp":"2025-06-01T12:00:00Z","currentPrice":3.5}`

	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.Kind != CvxPriceAlert {
		t.Errorf("kind = %v", ev.Kind)
	}
	if ev.Fields["currentPrice"] != 3.5 {
		t.Errorf("fields = %v", ev.Fields)
	}
	if _, ok := ev.Fields["event"]; ok {
		t.Error("envelope keys must not leak into fields")
	}
}

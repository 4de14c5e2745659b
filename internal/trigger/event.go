package trigger

import (
	"encoding/json"
	"time"
)

// Event is one emitted change occurrence. It serializes as a flat JSON
// object: the kind under "event", the kind-specific fields inline, and an
// ISO-8601 "timestamp".
type Event struct {
	Kind      EventKind
	Fields    map[string]any
	Timestamp time.Time
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["event"] = string(e.Kind)
	out["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339)
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if kind, ok := raw["event"].(string); ok {
		e.Kind = EventKind(kind)
	}
	if ts, ok := raw["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			e.Timestamp = t
		}
	}
	delete(raw, "event")
	delete(raw, "timestamp")
	e.Fields = raw
	return nil
}

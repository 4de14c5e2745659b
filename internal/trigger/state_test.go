package trigger

import (
	"encoding/json"
	"testing"
)

func TestStateJSONRoundTrip(t *testing.T) {
	count := 12
	tvl := 1_500_000.5
	id := "proposal-1"
	st := &PollingState{
		LastPoolCount:  &count,
		LastPoolTvl:    &tvl,
		LastProposalID: &id,
		LastPoolApys:   map[string]float64{"p1": 4.2},
	}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got PollingState
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if *got.LastPoolCount != count || *got.LastPoolTvl != tvl || *got.LastProposalID != id {
		t.Errorf("round trip lost scalar fields: %+v", got)
	}
	if got.LastPoolApys["p1"] != 4.2 {
		t.Errorf("round trip lost map entry: %+v", got.LastPoolApys)
	}
	if got.LastProtocolTvl != nil {
		t.Errorf("absent field must stay nil, got %v", *got.LastProtocolTvl)
	}
}

func TestStateEmptyMarshalsToEmptyObject(t *testing.T) {
	data, err := json.Marshal(&PollingState{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("empty state = %s, want {}", data)
	}
}

func TestCloneIsDeep(t *testing.T) {
	tvl := 100.0
	st := &PollingState{
		LastPoolTvl:  &tvl,
		LastPoolApys: map[string]float64{"p1": 1},
	}

	cp := st.Clone()
	*cp.LastPoolTvl = 200
	cp.LastPoolApys["p1"] = 2

	if *st.LastPoolTvl != 100 {
		t.Errorf("clone shares pointer fields: %v", *st.LastPoolTvl)
	}
	if st.LastPoolApys["p1"] != 1 {
		t.Errorf("clone shares map fields: %v", st.LastPoolApys)
	}
}

func TestCloneNil(t *testing.T) {
	var st *PollingState
	if cp := st.Clone(); cp == nil {
		t.Fatal("Clone of nil must return an empty state")
	}
}

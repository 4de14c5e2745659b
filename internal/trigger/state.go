package trigger

// PollingState is the durable record of last-observed values for one trigger
// instance. Absent fields mean the metric has not been observed yet; the
// first poll seeds them without emitting. The struct round-trips through
// JSON so the store can persist it as an opaque blob.
//
// poolTvlChanged and protocolTvlChanged deliberately track separate fields;
// a shared baseline would let the two kinds corrupt each other.
type PollingState struct {
	LastPoolCount   *int               `json:"lastPoolCount,omitempty"`
	LastPoolTvl     *float64           `json:"lastPoolTvl,omitempty"`
	LastProtocolTvl *float64           `json:"lastProtocolTvl,omitempty"`
	LastCvxPrice    *float64           `json:"lastCvxPrice,omitempty"`
	LastCvxCrvRatio *float64           `json:"lastCvxCrvRatio,omitempty"`
	LastProposalID  *string            `json:"lastProposalId,omitempty"`
	LastApy         map[string]float64 `json:"lastApy,omitempty"`
	LastPoolApys    map[string]float64 `json:"lastPoolApys,omitempty"`
}

// Clone returns a deep copy. The engine mutates only the clone so a failed
// poll leaves the caller's state untouched.
func (s *PollingState) Clone() *PollingState {
	if s == nil {
		return &PollingState{}
	}
	out := &PollingState{
		LastPoolCount:   copyPtr(s.LastPoolCount),
		LastPoolTvl:     copyPtr(s.LastPoolTvl),
		LastProtocolTvl: copyPtr(s.LastProtocolTvl),
		LastCvxPrice:    copyPtr(s.LastCvxPrice),
		LastCvxCrvRatio: copyPtr(s.LastCvxCrvRatio),
		LastProposalID:  copyPtr(s.LastProposalID),
	}
	if s.LastApy != nil {
		out.LastApy = make(map[string]float64, len(s.LastApy))
		for k, v := range s.LastApy {
			out.LastApy[k] = v
		}
	}
	if s.LastPoolApys != nil {
		out.LastPoolApys = make(map[string]float64, len(s.LastPoolApys))
		for k, v := range s.LastPoolApys {
			out.LastPoolApys[k] = v
		}
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptr[T any](v T) *T { return &v }

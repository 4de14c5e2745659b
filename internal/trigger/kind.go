package trigger

import "fmt"

// EventKind identifies one change-detection rule. The set is closed: the
// engine's dispatch table covers every kind and Parse rejects anything else.
type EventKind string

const (
	PoolApyChanged     EventKind = "poolApyChanged"
	NewPoolAdded       EventKind = "newPoolAdded"
	PoolTvlChanged     EventKind = "poolTvlChanged"
	CvxCrvAprChanged   EventKind = "cvxCrvAprChanged"
	CvxCrvPegAlert     EventKind = "cvxCrvPegAlert"
	NewProposal        EventKind = "newProposal"
	CvxPriceAlert      EventKind = "cvxPriceAlert"
	ProtocolTvlChanged EventKind = "protocolTvlChanged"
)

// Kinds lists every supported event kind.
func Kinds() []EventKind {
	return []EventKind{
		PoolApyChanged,
		NewPoolAdded,
		PoolTvlChanged,
		CvxCrvAprChanged,
		CvxCrvPegAlert,
		NewProposal,
		CvxPriceAlert,
		ProtocolTvlChanged,
	}
}

// ParseKind validates an event kind string. Unknown kinds fail fast rather
// than silently no-op.
func ParseKind(s string) (EventKind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

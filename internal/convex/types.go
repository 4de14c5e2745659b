package convex

// Pool is one yield pool as reported by the DefiLlama yields API.
type Pool struct {
	Pool             string   `json:"pool"`
	Chain            string   `json:"chain"`
	Project          string   `json:"project"`
	Symbol           string   `json:"symbol"`
	TvlUsd           float64  `json:"tvlUsd"`
	Apy              float64  `json:"apy"`
	ApyBase          float64  `json:"apyBase"`
	ApyReward        float64  `json:"apyReward"`
	ApyPct1D         float64  `json:"apyPct1D"`
	ApyPct7D         float64  `json:"apyPct7D"`
	ApyPct30D        float64  `json:"apyPct30D"`
	RewardTokens     []string `json:"rewardTokens"`
	UnderlyingTokens []string `json:"underlyingTokens"`
	Stablecoin       bool     `json:"stablecoin"`
	IlRisk           string   `json:"ilRisk"`
	Exposure         string   `json:"exposure"`
	PoolMeta         string   `json:"poolMeta"`
}

// Protocol is the protocol-level snapshot from the DefiLlama protocol API.
type Protocol struct {
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	Tvl       float64            `json:"tvl"`
	ChainTvls map[string]float64 `json:"currentChainTvls"`
	Change1d  float64            `json:"change_1d"`
	Change7d  float64            `json:"change_7d"`
	Chains    []string           `json:"chains"`
	Category  string             `json:"category"`
}

// TokenRef identifies a token either by chain and contract address or by a
// named coingecko price feed.
type TokenRef struct {
	Chain   string
	Address string
	GeckoID string
}

// Key returns the DefiLlama price API key for this reference, e.g.
// "ethereum:0x4e3F..." or "coingecko:convex-finance".
func (t TokenRef) Key() string {
	if t.GeckoID != "" {
		return "coingecko:" + t.GeckoID
	}
	return t.Chain + ":" + t.Address
}

// GeckoRef builds a coingecko-id token reference.
func GeckoRef(id string) TokenRef { return TokenRef{GeckoID: id} }

// AddressRef builds a chain:address token reference.
func AddressRef(chain, address string) TokenRef {
	return TokenRef{Chain: chain, Address: address}
}

// Proposal is a Snapshot governance proposal for the cvx.eth space.
type Proposal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Choices     []string  `json:"choices"`
	Start       int64     `json:"start"`
	End         int64     `json:"end"`
	State       string    `json:"state"`
	Author      string    `json:"author"`
	Scores      []float64 `json:"scores"`
	ScoresTotal float64   `json:"scores_total"`
	Votes       int       `json:"votes"`
}

// Vote is one vote cast on a Snapshot proposal.
type Vote struct {
	ID      string  `json:"id"`
	Voter   string  `json:"voter"`
	Vp      float64 `json:"vp"`
	Choice  any     `json:"choice"`
	Created int64   `json:"created"`
}

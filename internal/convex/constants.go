package convex

import "time"

// DefiLlama endpoints and the Convex protocol slug.
const (
	DefiLlamaProtocolAPI = "https://api.llama.fi/protocol"
	DefiLlamaTvlAPI      = "https://api.llama.fi/tvl"
	DefiLlamaYieldsAPI   = "https://yields.llama.fi/pools"
	DefiLlamaPricesAPI   = "https://coins.llama.fi/prices/current"

	ConvexSlug   = "convex-finance"
	PrimaryChain = "Ethereum"
)

// Snapshot governance endpoint and the Convex voting space.
const (
	SnapshotAPI   = "https://hub.snapshot.org/graphql"
	SnapshotSpace = "cvx.eth"
)

// Ethereum mainnet contract addresses.
const (
	BoosterContract       = "0xF403C135812408BFbE8713b5A23a04b3D48AAE31"
	CvxContract           = "0x4e3FBD56CD56c3e72c1403e103b45Db9da5B9D2B"
	CvxCrvContract        = "0x62B9c7356A2Dc64a1969e19C23e4f579F9810Aa7"
	CvxCrvStakingContract = "0x3Fe65692bfCD0e6CF84Cb1E7d24108E434A7587e"
	VlCvxContract         = "0x72a19342e8F1838460eBFCCEf09F6585e32db86E"
	CrvContract           = "0xD533a949740bb3306d119CC777fa900bA034cd52"
	CvxFxsContract        = "0xFEEf77d3f69374f66429C91d732A244f074bdf74"
	CvxPrismaContract     = "0x34635280737b5BFe6c7DC2FC3065D60d66e78185"
)

// Coingecko price-feed ids used by the peg and price alert checks and the
// partner-protocol stats.
const (
	GeckoCVX    = "convex-finance"
	GeckoCvxCRV = "convex-crv"
	GeckoCRV    = "curve-dao-token"
	GeckoFXS    = "frax-share"
	GeckoCvxFXS = "convex-fxs"
	GeckoPRISMA = "prisma-governance-token"
)

// Published supply and revenue estimates. Exact figures need on-chain reads,
// which are out of scope; these track the commonly cited numbers.
const (
	EstCirculatingCvx     = 85_000_000
	EstTotalCvxSupply     = 90_000_000
	EstLockedCvx          = 50_000_000
	EstCvxCrvSupply       = 300_000_000
	EstStakedCvxCrv       = 250_000_000
	EstVeCrvControlled    = 300_000_000
	EstWeeklyBribeRevenue = 2_500_000
	BribeRoundsPerYear    = 26
)

// Fee split of the 17% platform fee taken from CRV rewards.
type FeeShare struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Recipient  string  `json:"recipient"`
}

const TotalPlatformFeePct = 17

var FeeSplit = []FeeShare{
	{Name: "cvxCrvStakers", Percentage: 10, Recipient: "cvxCRV stakers"},
	{Name: "vlCvxHolders", Percentage: 5, Recipient: "vlCVX holders"},
	{Name: "harvestCaller", Percentage: 1, Recipient: "Harvest caller"},
	{Name: "platform", Percentage: 1, Recipient: "Convex treasury"},
}

// CVX emission schedule. Minting rate decays over 1000 cliffs of 100k CRV
// each until the 100M max supply is reached.
const (
	MaxCvxSupply       = 100_000_000
	EmissionCliffs     = 1000
	EmissionCliffSize  = 100_000
	VlCvxLockWeeks     = 16
	gaugeVoteCycleDays = 14
)

// NetAPY returns the APY left after the platform fee.
func NetAPY(grossAPY float64) float64 {
	return grossAPY * (100 - TotalPlatformFeePct) / 100
}

// FeeAmounts splits a CRV reward amount across the fee recipients.
func FeeAmounts(totalReward float64) map[string]float64 {
	out := make(map[string]float64, len(FeeSplit))
	for _, f := range FeeSplit {
		out[f.Name] = totalReward * f.Percentage / 100
	}
	return out
}

// EmissionRate returns the current CVX-per-CRV minting rate given the total
// CRV earned by the platform so far.
func EmissionRate(totalCrvEarned float64) float64 {
	if totalCrvEarned < 0 {
		totalCrvEarned = 0
	}
	cliff := int(totalCrvEarned / EmissionCliffSize)
	if cliff >= EmissionCliffs {
		return 0
	}
	return float64(EmissionCliffs-cliff) / EmissionCliffs
}

// EstimateCvxFromCrv estimates CVX minted for a CRV amount at the current
// point of the emission schedule.
func EstimateCvxFromCrv(crvAmount, totalCrvEarned float64) float64 {
	return crvAmount * EmissionRate(totalCrvEarned)
}

// UnlockDate returns the vlCVX unlock time for a lock made at lockedAt.
// Locks run 16 weeks plus a one day grace period.
func UnlockDate(lockedAt time.Time) time.Time {
	return lockedAt.Add(VlCvxLockWeeks*7*24*time.Hour + 24*time.Hour)
}

// NextGaugeVote returns the next Thursday gauge vote date after now.
func NextGaugeVote(now time.Time) time.Time {
	days := (int(time.Thursday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	next := now.AddDate(0, 0, days)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, now.Location())
}

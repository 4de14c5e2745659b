package convex

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Client is the unified read surface over the two data adapters. DefiLlama
// is the required source (errors propagate); Snapshot governance data is
// best effort (errors become empty results).
type Client struct {
	llama    *DefiLlama
	snapshot *Snapshot
}

// Options configures the unified client.
type Options struct {
	SnapshotURL string
	Timeout     time.Duration
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		llama:    NewDefiLlama(timeout),
		snapshot: NewSnapshot(opts.SnapshotURL, logger),
	}
}

// GetPools returns all Convex pools on the primary chain in adapter order.
func (c *Client) GetPools(ctx context.Context) ([]Pool, error) {
	return c.llama.ConvexPools(ctx)
}

// GetTopPoolsByApy returns the highest-yield pools with positive APY.
func (c *Client) GetTopPoolsByApy(ctx context.Context, limit int) ([]Pool, error) {
	pools, err := c.llama.ConvexPools(ctx)
	if err != nil {
		return nil, err
	}
	filtered := pools[:0:0]
	for _, p := range pools {
		if p.Apy > 0 {
			filtered = append(filtered, p)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Apy > filtered[j].Apy })
	return truncate(filtered, limit), nil
}

// GetTopPoolsByTvl returns the largest pools with positive TVL.
func (c *Client) GetTopPoolsByTvl(ctx context.Context, limit int) ([]Pool, error) {
	pools, err := c.llama.ConvexPools(ctx)
	if err != nil {
		return nil, err
	}
	filtered := pools[:0:0]
	for _, p := range pools {
		if p.TvlUsd > 0 {
			filtered = append(filtered, p)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].TvlUsd > filtered[j].TvlUsd })
	return truncate(filtered, limit), nil
}

// GetPoolByID matches a pool identifier case-insensitively. Returns
// ErrNotFound when no pool matches.
func (c *Client) GetPoolByID(ctx context.Context, id string) (*Pool, error) {
	pools, err := c.llama.ConvexPools(ctx)
	if err != nil {
		return nil, err
	}
	for i := range pools {
		if strings.EqualFold(pools[i].Pool, id) {
			return &pools[i], nil
		}
	}
	return nil, ErrNotFound
}

// GetPoolsMatching returns Convex pools whose symbol, id or pool metadata
// contains any of the given terms, case-insensitively. This is how the
// partner-protocol views (cvxCRV staking, Frax, Prisma) carve out their
// slice of the pool list.
func (c *Client) GetPoolsMatching(ctx context.Context, terms ...string) ([]Pool, error) {
	pools, err := c.llama.ConvexPools(ctx)
	if err != nil {
		return nil, err
	}
	var out []Pool
	for _, p := range pools {
		haystack := strings.ToLower(p.Symbol + " " + p.Pool + " " + p.PoolMeta)
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// GetProtocolSnapshot returns protocol-wide TVL, the per-chain breakdown and
// recent change percentages.
func (c *Client) GetProtocolSnapshot(ctx context.Context) (*Protocol, error) {
	return c.llama.ProtocolData(ctx)
}

// GetTvl returns the protocol-wide TVL number.
func (c *Client) GetTvl(ctx context.Context) (float64, error) {
	return c.llama.Tvl(ctx)
}

// GetPrice resolves one token price in USD; unknown tokens resolve to 0.
func (c *Client) GetPrice(ctx context.Context, ref TokenRef) (float64, error) {
	prices, err := c.llama.Prices(ctx, []TokenRef{ref})
	if err != nil {
		return 0, err
	}
	return prices[ref.Key()], nil
}

// GetPrices resolves several token prices in one request, keyed by each
// reference's Key().
func (c *Client) GetPrices(ctx context.Context, refs []TokenRef) (map[string]float64, error) {
	return c.llama.Prices(ctx, refs)
}

// GetActiveProposals returns active governance proposals, newest first.
func (c *Client) GetActiveProposals(ctx context.Context) []Proposal {
	return c.snapshot.ActiveProposals(ctx)
}

// GetAllProposals returns up to limit proposals of any state.
func (c *Client) GetAllProposals(ctx context.Context, limit int) []Proposal {
	return c.snapshot.AllProposals(ctx, limit)
}

// GetProposalByID returns one proposal or nil.
func (c *Client) GetProposalByID(ctx context.Context, id string) *Proposal {
	return c.snapshot.ProposalByID(ctx, id)
}

// GetProposalVotes returns up to limit votes on a proposal.
func (c *Client) GetProposalVotes(ctx context.Context, id string, limit int) []Vote {
	return c.snapshot.ProposalVotes(ctx, id, limit)
}

// GetGaugeWeightVotes returns recent gauge weight vote proposals.
func (c *Client) GetGaugeWeightVotes(ctx context.Context, limit int) []Proposal {
	return c.snapshot.GaugeWeightVotes(ctx, limit)
}

func truncate(pools []Pool, limit int) []Pool {
	if limit <= 0 {
		limit = 10
	}
	if len(pools) > limit {
		return pools[:limit]
	}
	return pools
}

package convex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Velocity-BPA/convex-monitor/internal/metrics"
)

// Snapshot queries the Snapshot governance GraphQL hub for the cvx.eth
// space. Governance data is best effort: transport failures are logged and
// converted to empty results so polls that depend on other metrics keep
// working.
type Snapshot struct {
	url    string
	space  string
	client *http.Client
	logger *slog.Logger
}

func NewSnapshot(url string, logger *slog.Logger) *Snapshot {
	if url == "" {
		url = SnapshotAPI
	}
	return &Snapshot{
		url:    url,
		space:  SnapshotSpace,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (s *Snapshot) query(ctx context.Context, op, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.AdapterRequestDuration.WithLabelValues("snapshot", op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AdapterRequestsTotal.WithLabelValues("snapshot", op, "error").Inc()
		return fmt.Errorf("snapshot hub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.AdapterRequestsTotal.WithLabelValues("snapshot", op, "error").Inc()
		return fmt.Errorf("snapshot hub status: %d", resp.StatusCode)
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.AdapterRequestsTotal.WithLabelValues("snapshot", op, "error").Inc()
		return fmt.Errorf("decode snapshot response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		metrics.AdapterRequestsTotal.WithLabelValues("snapshot", op, "error").Inc()
		return fmt.Errorf("snapshot graphql: %s", envelope.Errors[0].Message)
	}

	metrics.AdapterRequestsTotal.WithLabelValues("snapshot", op, "ok").Inc()
	return json.Unmarshal(envelope.Data, out)
}

const proposalFields = `
	id
	title
	body
	choices
	start
	end
	state
	author
	scores
	scores_total
	votes`

// ActiveProposals returns currently active proposals, newest first. An
// unreachable hub yields an empty slice.
func (s *Snapshot) ActiveProposals(ctx context.Context) []Proposal {
	query := fmt.Sprintf(`query ($space: String!) {
		proposals(first: 20, where: { space: $space, state: "active" }, orderBy: "created", orderDirection: desc) {%s
		}
	}`, proposalFields)

	var result struct {
		Proposals []Proposal `json:"proposals"`
	}
	if err := s.query(ctx, "active_proposals", query, map[string]any{"space": s.space}, &result); err != nil {
		s.logger.Warn("snapshot query failed, returning empty result", "op", "active_proposals", "error", err)
		return nil
	}
	return result.Proposals
}

// AllProposals returns up to limit proposals of any state, newest first.
func (s *Snapshot) AllProposals(ctx context.Context, limit int) []Proposal {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`query ($space: String!, $first: Int!) {
		proposals(first: $first, where: { space: $space }, orderBy: "created", orderDirection: desc) {%s
		}
	}`, proposalFields)

	var result struct {
		Proposals []Proposal `json:"proposals"`
	}
	vars := map[string]any{"space": s.space, "first": limit}
	if err := s.query(ctx, "all_proposals", query, vars, &result); err != nil {
		s.logger.Warn("snapshot query failed, returning empty result", "op", "all_proposals", "error", err)
		return nil
	}
	return result.Proposals
}

// ProposalByID returns one proposal, or nil if it does not exist or the hub
// is unreachable.
func (s *Snapshot) ProposalByID(ctx context.Context, id string) *Proposal {
	query := fmt.Sprintf(`query ($id: String!) {
		proposal(id: $id) {%s
		}
	}`, proposalFields)

	var result struct {
		Proposal *Proposal `json:"proposal"`
	}
	if err := s.query(ctx, "proposal_by_id", query, map[string]any{"id": id}, &result); err != nil {
		s.logger.Warn("snapshot query failed, returning empty result", "op", "proposal_by_id", "error", err)
		return nil
	}
	return result.Proposal
}

// ProposalVotes returns up to limit votes on a proposal, largest voting
// power first.
func (s *Snapshot) ProposalVotes(ctx context.Context, proposalID string, limit int) []Vote {
	if limit <= 0 {
		limit = 100
	}
	query := `query ($proposal: String!, $first: Int!) {
		votes(first: $first, where: { proposal: $proposal }, orderBy: "vp", orderDirection: desc) {
			id
			voter
			vp
			choice
			created
		}
	}`

	var result struct {
		Votes []Vote `json:"votes"`
	}
	vars := map[string]any{"proposal": proposalID, "first": limit}
	if err := s.query(ctx, "proposal_votes", query, vars, &result); err != nil {
		s.logger.Warn("snapshot query failed, returning empty result", "op", "proposal_votes", "error", err)
		return nil
	}
	return result.Votes
}

// GaugeWeightVotes filters recent proposals down to the bi-weekly gauge
// weight votes by title convention.
func (s *Snapshot) GaugeWeightVotes(ctx context.Context, limit int) []Proposal {
	if limit <= 0 {
		limit = 10
	}
	all := s.AllProposals(ctx, 50)

	var out []Proposal
	for _, p := range all {
		title := strings.ToLower(p.Title)
		if strings.Contains(title, "gauge") || strings.Contains(title, "weight") || strings.Contains(title, "vote") {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

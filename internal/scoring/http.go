// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package scoring

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/idmap"
	"github.com/tomtom215/feedgraph/internal/metrics"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("scorer returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("scorer returned HTTP %d: %s", e.StatusCode, e.Body)
}

type scoreRequest struct {
	ReferenceItemID string   `json:"reference_item_id"`
	ItemIDs         []string `json:"item_ids"`
}

type scoreResponse struct {
	ReferenceItemID json.RawMessage    `json:"reference_item_id"`
	Scores          map[string]float64 `json:"scores"`
}

// HTTPClient calls POST {url}/score_items.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	mapper   idmap.Mapper
}

// NewHTTPClient creates a client for cfg.URL. RateLimit <= 0 disables the
// outbound limiter.
func NewHTTPClient(cfg *config.ScorerConfig, mapper idmap.Mapper) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse scorer url: %w", err)
	}
	if mapper == nil {
		mapper = idmap.Identity{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &HTTPClient{
		endpoint: base.String() + "/score_items",
		client:   &http.Client{Timeout: timeout},
		mapper:   mapper,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// Score implements Scorer.
func (c *HTTPClient) Score(ctx context.Context, req Request) (_ *Response, err error) {
	start := time.Now()
	defer func() { metrics.RecordScorerRequest("http", time.Since(start), err) }()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("scorer rate limit wait: %w", err)
		}
	}

	// Candidates are sent in the scorer's namespace; keys are mapped back.
	back := make(map[string]string, len(req.CandidateItems))
	body := scoreRequest{
		ReferenceItemID: c.mapper.ToStore(req.ReferenceItem),
		ItemIDs:         make([]string, 0, len(req.CandidateItems)),
	}
	for _, id := range req.CandidateItems {
		sid := c.mapper.ToStore(id)
		if _, dup := back[sid]; !dup {
			back[sid] = id
			body.ItemIDs = append(body.ItemIDs, sid)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("score request for %s: %w", req.ReferenceItem, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode score response: %w", err)
	}

	out := &Response{Scores: make(map[string]float64, len(decoded.Scores))}
	for sid, score := range decoded.Scores {
		if id, ok := back[sid]; ok {
			out.Scores[id] = score
		} else {
			out.Scores[c.mapper.ToCatalog(sid)] = score
		}
	}
	return out, nil
}

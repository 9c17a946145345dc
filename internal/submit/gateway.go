// Package submit pushes completed pair evaluations to the remote collection
// endpoint, best-effort: duplicate sends are suppressed, failures roll back
// to retryable, and the rater's local data is never at risk.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/pairlens/internal/model"
	"github.com/ppiankov/pairlens/internal/store"
	"go.uber.org/zap"
)

// Outcome is the result of a submission attempt.
type Outcome string

const (
	// OutcomeSent: the endpoint acknowledged with a 2xx.
	OutcomeSent Outcome = "sent"
	// OutcomeAlreadySubmitted: a previous attempt already succeeded.
	OutcomeAlreadySubmitted Outcome = "already_submitted"
	// OutcomeFailed: the push failed; the pair is retryable again.
	OutcomeFailed Outcome = "failed"
	// OutcomeNotComplete: not all categories are recorded yet; no-op.
	OutcomeNotComplete Outcome = "not_complete"
)

// Payload is the serialized snapshot posted per completed pair. Field names
// match what the collection endpoint has always received.
type Payload struct {
	Timestamp   time.Time                                `json:"timestamp"`
	PairID      string                                   `json:"pairId"`
	Dataset     string                                   `json:"dataset"`
	QuestionSet string                                   `json:"questionSet"`
	PairNumber  int                                      `json:"pairNumber"`
	UserAgent   string                                   `json:"userAgent"`
	SessionID   string                                   `json:"sessionId"`
	Evaluations map[model.Category]*model.CategoryResult `json:"evaluations"`
}

// Gateway submits completed evaluations. The endpoint is opaque: any 2xx is
// success, everything else — including transport errors — is failure. The
// response status is always read; there is no fire-and-forget mode.
type Gateway struct {
	endpoint   string
	httpClient *http.Client
	store      *store.Store
	userAgent  string
	sessionID  string
	logger     *zap.Logger
	nowFunc    func() time.Time
}

// New creates a gateway posting to endpoint on behalf of the given store.
func New(endpoint string, timeout time.Duration, userAgent string, st *store.Store, logger *zap.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		store:      st,
		userAgent:  userAgent,
		sessionID:  "session_" + uuid.NewString(),
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// SessionID returns the identifier stamped on every payload this gateway
// sends.
func (g *Gateway) SessionID() string { return g.sessionID }

// SubmitIfComplete pushes the pair's evaluation when all four categories are
// recorded. The pair is optimistically marked submitted and persisted before
// the push, so a concurrent trigger cannot double-send; failure rolls the
// mark back so a later call re-attempts delivery.
func (g *Gateway) SubmitIfComplete(ctx context.Context, pairID string) (Outcome, error) {
	ev, ok := g.store.Evaluation(pairID)
	if !ok || !ev.IsComplete() {
		return OutcomeNotComplete, nil
	}
	if ev.Submitted {
		return OutcomeAlreadySubmitted, nil
	}

	if err := g.store.MarkSubmitted(pairID); err != nil {
		return OutcomeFailed, fmt.Errorf("mark submitted: %w", err)
	}

	if err := g.push(ctx, ev); err != nil {
		g.logger.Warn("submission failed, will retry later",
			zap.String("pair_id", pairID), zap.Error(err))
		if clearErr := g.store.ClearSubmitted(pairID); clearErr != nil {
			g.logger.Error("rollback of submitted flag failed",
				zap.String("pair_id", pairID), zap.Error(clearErr))
		}
		return OutcomeFailed, err
	}

	g.logger.Info("pair submitted", zap.String("pair_id", pairID))
	return OutcomeSent, nil
}

// SubmitPending re-attempts every complete, unsubmitted pair. Returns how
// many were sent and how many failed; failures stay retryable.
func (g *Gateway) SubmitPending(ctx context.Context) (sent, failed int, err error) {
	for _, ev := range g.store.All() {
		if !ev.IsComplete() || ev.Submitted {
			continue
		}
		outcome, subErr := g.SubmitIfComplete(ctx, ev.PairID)
		switch outcome {
		case OutcomeSent:
			sent++
		case OutcomeFailed:
			failed++
			err = subErr
		}
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}
	}
	return sent, failed, err
}

// Ping posts a marker payload to verify the endpoint is reachable and
// accepting submissions.
func (g *Gateway) Ping(ctx context.Context) error {
	payload := Payload{
		Timestamp:   g.nowFunc().UTC(),
		PairID:      "connectivity-check",
		Dataset:     "connectivity-check",
		QuestionSet: "connectivity-check",
		UserAgent:   g.userAgent,
		SessionID:   g.sessionID,
	}
	return g.post(ctx, payload)
}

// push serializes one pair's snapshot and posts it.
func (g *Gateway) push(ctx context.Context, ev *model.PairEvaluation) error {
	meta := ev.Metadata
	questionSet := meta.Summary
	if meta.Question != "" {
		questionSet = meta.Summary + "_" + meta.Question
	}

	payload := Payload{
		Timestamp:   g.nowFunc().UTC(),
		PairID:      ev.PairID,
		Dataset:     meta.Dataset,
		QuestionSet: questionSet,
		PairNumber:  meta.PairNumber,
		UserAgent:   g.userAgent,
		SessionID:   g.sessionID,
		Evaluations: ev.Evaluations,
	}
	return g.post(ctx, payload)
}

func (g *Gateway) post(ctx context.Context, payload Payload) error {
	if g.endpoint == "" {
		return fmt.Errorf("no submission endpoint configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}

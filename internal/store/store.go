// Package store holds per-pair evaluation state with durable JSON
// persistence, mirroring the browser tool's localStorage blob so interrupted
// sessions resume exactly where they stopped.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/pairlens/internal/model"
	"go.uber.org/zap"
)

// Store is the evaluation state map keyed by pair ID. Every mutation is
// immediately followed by a full persist, so state surviving a restart is
// never older than the last saved category.
type Store struct {
	path   string
	logger *zap.Logger

	mu    sync.Mutex
	evals map[string]*model.PairEvaluation

	// nowFunc is injectable for tests
	nowFunc func() time.Time
}

// New creates a store persisting to the given JSON file path.
func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:    path,
		logger:  logger,
		evals:   make(map[string]*model.PairEvaluation),
		nowFunc: time.Now,
	}
}

// Restore reloads the state map from disk. A missing file starts an empty
// session; malformed stored JSON is discarded with a warning rather than
// crashing, so a corrupt blob costs the rater their history but never the
// ability to keep rating.
func (s *Store) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state: %w", err)
	}

	var evals map[string]*model.PairEvaluation
	if err := json.Unmarshal(data, &evals); err != nil {
		s.logger.Warn("discarding malformed persisted state",
			zap.String("path", s.path), zap.Error(err))
		s.evals = make(map[string]*model.PairEvaluation)
		return nil
	}

	s.evals = evals
	s.logger.Info("restored evaluation state",
		zap.String("path", s.path), zap.Int("pairs", len(evals)))
	return nil
}

// GetOrCreate returns the pair's evaluation state, initializing a fresh one
// with all categories incomplete on first interaction.
func (s *Store) GetOrCreate(pairID string, meta model.PairMetadata) *model.PairEvaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev, ok := s.evals[pairID]; ok {
		return ev
	}
	ev := model.NewPairEvaluation(pairID, meta, s.nowFunc().UTC())
	s.evals[pairID] = ev
	return ev
}

// Evaluation returns the pair's state if the pair has been seen.
func (s *Store) Evaluation(pairID string) (*model.PairEvaluation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[pairID]
	return ev, ok
}

// RecordCategoryResult marks the category complete with the given responses
// and persists the whole map before returning. An invalid bundle is rejected
// without mutating state. Saving a category twice keeps only the latest
// bundle and timestamp.
func (s *Store) RecordCategoryResult(pairID string, category model.Category, bundle model.ResponseBundle) error {
	if !model.ValidCategory(string(category)) {
		return fmt.Errorf("unknown category %q", category)
	}
	if err := model.ValidateBundle(category, bundle); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[pairID]
	if !ok {
		return fmt.Errorf("no evaluation started for pair %q", pairID)
	}

	now := s.nowFunc().UTC()
	ev.Evaluations[category] = &model.CategoryResult{
		Completed: true,
		Responses: bundle,
		Timestamp: now,
	}
	ev.CompletionStatus[category] = true
	if ev.IsComplete() && ev.CompletedAt == nil {
		completed := now
		ev.CompletedAt = &completed
	}

	// Persist before the caller can run its completion check: a crash here
	// can at worst delay submission, never lose the saved category.
	return s.persistLocked()
}

// IsPairComplete reports whether all four categories are recorded.
func (s *Store) IsPairComplete(pairID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[pairID]
	return ok && ev.IsComplete()
}

// MarkSubmitted optimistically flags the pair as submitted and persists, so a
// second trigger cannot double-send while the push is in flight.
func (s *Store) MarkSubmitted(pairID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[pairID]
	if !ok {
		return fmt.Errorf("no evaluation started for pair %q", pairID)
	}
	now := s.nowFunc().UTC()
	ev.Submitted = true
	ev.SubmittedAt = &now
	return s.persistLocked()
}

// ClearSubmitted rolls back a failed submission so a later attempt can retry
// delivery.
func (s *Store) ClearSubmitted(pairID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.evals[pairID]
	if !ok {
		return fmt.Errorf("no evaluation started for pair %q", pairID)
	}
	ev.Submitted = false
	ev.SubmittedAt = nil
	return s.persistLocked()
}

// All returns every tracked evaluation, ordered by pair ID for stable
// iteration.
func (s *Store) All() []*model.PairEvaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.evals))
	for id := range s.evals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	all := make([]*model.PairEvaluation, 0, len(ids))
	for _, id := range ids {
		all = append(all, s.evals[id])
	}
	return all
}

// Persist serializes the whole state map to disk.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.evals, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

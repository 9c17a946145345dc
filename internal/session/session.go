// Package session owns the rating session's mutable pointers — current pair,
// current category — and wires user input through the store to the gateway.
// It replaces the ambient globals of the original tool with one explicit
// object.
package session

import (
	"context"
	"fmt"

	"github.com/ppiankov/pairlens/internal/model"
	"github.com/ppiankov/pairlens/internal/resolve"
	"github.com/ppiankov/pairlens/internal/store"
	"github.com/ppiankov/pairlens/internal/submit"
	"go.uber.org/zap"
)

// Session drives one rater's pass over the resolved pair list. All methods
// run on the single interaction goroutine; there is no concurrent caller.
type Session struct {
	resolver *resolve.Resolver
	store    *store.Store
	gateway  *submit.Gateway
	logger   *zap.Logger

	pairs    []model.Pair
	current  int
	category model.Category
}

// New assembles a session from its collaborators.
func New(resolver *resolve.Resolver, st *store.Store, gateway *submit.Gateway, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		resolver: resolver,
		store:    st,
		gateway:  gateway,
		logger:   logger,
		category: model.CategoryClutter,
	}
}

// Initialize restores persisted state and resolves the pair list once. The
// list is immutable for the life of the session.
func (s *Session) Initialize(ctx context.Context, filter resolve.Filter) error {
	if err := s.store.Restore(); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}

	pairs, err := s.resolver.ResolveAll(ctx, filter)
	if err != nil {
		return fmt.Errorf("resolve pairs: %w", err)
	}
	s.pairs = pairs
	s.current = 0
	return nil
}

// Pairs returns the resolved pair list in navigation order.
func (s *Session) Pairs() []model.Pair { return s.pairs }

// CurrentPair returns the pair under evaluation.
func (s *Session) CurrentPair() (model.Pair, bool) {
	if s.current < 0 || s.current >= len(s.pairs) {
		return model.Pair{}, false
	}
	return s.pairs[s.current], true
}

// CurrentCategory returns the category whose form is active.
func (s *Session) CurrentCategory() model.Category { return s.category }

// SelectCategory switches the active category.
func (s *Session) SelectCategory(c model.Category) error {
	if !model.ValidCategory(string(c)) {
		return fmt.Errorf("unknown category %q", c)
	}
	s.category = c
	return nil
}

// Next advances to the next pair, if any.
func (s *Session) Next() (model.Pair, bool) {
	if s.current+1 >= len(s.pairs) {
		return model.Pair{}, false
	}
	s.current++
	return s.pairs[s.current], true
}

// Previous steps back to the previous pair, if any.
func (s *Session) Previous() (model.Pair, bool) {
	if s.current == 0 || len(s.pairs) == 0 {
		return model.Pair{}, false
	}
	s.current--
	return s.pairs[s.current], true
}

// Jump moves to the pair at index.
func (s *Session) Jump(index int) (model.Pair, bool) {
	if index < 0 || index >= len(s.pairs) {
		return model.Pair{}, false
	}
	s.current = index
	return s.pairs[s.current], true
}

// FindPair locates a resolved pair by ID.
func (s *Session) FindPair(pairID string) (model.Pair, bool) {
	for _, p := range s.pairs {
		if p.ID == pairID {
			return p, true
		}
	}
	return model.Pair{}, false
}

// RecordResult saves one category's responses for the given pair, persists,
// and — when the save completes the pair — triggers exactly one submission
// attempt. Validation errors are returned without mutating state; submission
// failure is reported through the outcome and never blocks further rating.
func (s *Session) RecordResult(ctx context.Context, pair model.Pair, category model.Category, bundle model.ResponseBundle) (submit.Outcome, error) {
	s.store.GetOrCreate(pair.ID, pair.Metadata)

	if err := s.store.RecordCategoryResult(pair.ID, category, bundle); err != nil {
		return "", err
	}

	outcome, err := s.gateway.SubmitIfComplete(ctx, pair.ID)
	if err != nil {
		// Transient: the saved data is on disk and the pair stays retryable.
		s.logger.Warn("auto-submit failed",
			zap.String("pair_id", pair.ID), zap.Error(err))
	}
	return outcome, nil
}

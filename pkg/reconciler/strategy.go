package reconciler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/errors"
)

// StrategyType represents the type of reconciliation strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

// Name returns the name of the strategy type.
func (s StrategyType) Name() string {
	str := s.String()
	// Replace hyphens with spaces and title case each word
	words := strings.Split(str, "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

const (
	// StrategyTypeSourceOrder uses source ordering to resolve conflicts.
	StrategyTypeSourceOrder StrategyType = "source-order"
)

// Strategy defines how catalogs from several sources are combined.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// Order returns the source precedence, highest first
	Order() []catalogs.Source

	// ResolveConflict picks the winner among links sharing one key
	ResolveConflict(candidates []catalogs.DiscoveredLink) (catalogs.DiscoveredLink, string)

	// Merge combines catalogs into one, unique by key
	Merge(cats ...*catalogs.Catalog) *catalogs.Catalog

	// ValidateResult validates the reconciliation result
	ValidateResult(result *Result) error
}

// baseStrategy provides common strategy functionality.
type baseStrategy struct {
	typ         StrategyType
	description string
}

// Type returns the strategy type.
func (s *baseStrategy) Type() StrategyType {
	return s.typ
}

// Description returns a human-readable description.
func (s *baseStrategy) Description() string {
	return s.description
}

// ValidateResult checks the merged catalog holds one link per key, all of the
// requested category.
func (s *baseStrategy) ValidateResult(result *Result) error {
	if result == nil {
		return &errors.ValidationError{
			Field:   "result",
			Message: "cannot be nil",
		}
	}
	seen := make(map[catalogs.Key]bool, result.Catalog.Len())
	for _, l := range result.Catalog.Links() {
		if seen[l.Key()] {
			return errors.NewValidationError("catalog", l.Key().String(), "duplicate key after merge")
		}
		seen[l.Key()] = true
		if result.Request.Category != "" && l.Category != result.Request.Category {
			return errors.NewValidationError("catalog", l.Key().String(), "link of another category after merge")
		}
	}
	return nil
}

// SourceOrderStrategy resolves conflicts using a fixed source precedence order.
// Sources earlier in the priority slice have higher precedence than sources later in the slice.
type SourceOrderStrategy struct {
	baseStrategy
	sourcePriorityOrder []catalogs.Source // First element = highest priority
}

// NewSourceOrderStrategy creates a new source priority order strategy.
// The priorityOrder slice determines precedence: earlier elements have higher priority.
func NewSourceOrderStrategy(priorityOrder []catalogs.Source) Strategy {
	return &SourceOrderStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeSourceOrder,
			description: fmt.Sprintf("Resolves conflicts using source priority order: %v", priorityOrder),
		},
		sourcePriorityOrder: slices.Clone(priorityOrder),
	}
}

// DefaultStrategy prefers static captures over the live crawl.
func DefaultStrategy() Strategy {
	return NewSourceOrderStrategy(catalogs.Sources())
}

// Order returns the source precedence, highest first.
func (s *SourceOrderStrategy) Order() []catalogs.Source {
	return slices.Clone(s.sourcePriorityOrder)
}

func (s *SourceOrderStrategy) rank(src catalogs.Source) int {
	if i := slices.Index(s.sourcePriorityOrder, src); i >= 0 {
		return i
	}
	return len(s.sourcePriorityOrder)
}

// ResolveConflict uses source priority order to resolve conflicts. Among
// links of equal rank the first candidate wins.
func (s *SourceOrderStrategy) ResolveConflict(candidates []catalogs.DiscoveredLink) (catalogs.DiscoveredLink, string) {
	if len(candidates) == 0 {
		return catalogs.DiscoveredLink{}, "no value available"
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if s.rank(candidates[i].Source) < s.rank(candidates[best].Source) {
			best = i
		}
	}
	winner := candidates[best]
	if s.rank(winner.Source) == len(s.sourcePriorityOrder) {
		return winner, "no priority source available, using first candidate"
	}
	return winner, fmt.Sprintf("selected by source priority order (%s)", winner.Source)
}

// Merge concatenates cats, orders links by source precedence and keeps the
// first link per key.
func (s *SourceOrderStrategy) Merge(cats ...*catalogs.Catalog) *catalogs.Catalog {
	return catalogs.Merge(s.sourcePriorityOrder, cats...)
}

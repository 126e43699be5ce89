package achievement

import (
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/tilinna/clock"
)

// Evaluator decides which badges a learner has newly earned. It holds no
// per-learner state.
type Evaluator struct {
	clock   clock.Clock
	catalog []Badge
}

func NewEvaluator(clk clock.Clock, catalog []Badge) (*Evaluator, error) {
	if err := ValidateCatalog(catalog); err != nil {
		return nil, errors.Trace(err)
	}

	return &Evaluator{
		clock:   clk,
		catalog: append([]Badge(nil), catalog...),
	}, nil
}

func (e *Evaluator) Catalog() []Badge {
	return append([]Badge(nil), e.catalog...)
}

func (e *Evaluator) Badge(id string) (Badge, error) {
	for _, b := range e.catalog {
		if b.ID == id {
			return b, nil
		}
	}

	return Badge{}, errors.Annotatef(ErrBadgeNotFound, "badge %q", id)
}

// Evaluate returns one EarnedBadge, in catalog order, for every badge whose
// requirement s meets and that s has not earned yet.
func (e *Evaluator) Evaluate(s UserState) []EarnedBadge {
	now := e.clock.Now()

	var out []EarnedBadge
	for _, b := range e.catalog {
		if s.HasEarned(b.ID) || !b.Requirement.Met(s) {
			continue
		}

		out = append(out, EarnedBadge{
			ID:       uuid.New(),
			UserID:   s.UserID,
			BadgeID:  b.ID,
			EarnedAt: now,
		})
	}

	return out
}

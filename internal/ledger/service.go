package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
)

// Reader lists ledger entries.
type Reader interface {
	ListByHousehold(ctx context.Context, householdID uuid.UUID, from, to *time.Time) ([]Entry, error)
}

// HouseholdLookup resolves households.
type HouseholdLookup interface {
	Get(ctx context.Context, id uuid.UUID) (households.Household, error)
}

// Cache stores rendered statements between writes.
type Cache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// Service builds household statements.
type Service struct {
	reader     Reader
	households HouseholdLookup
	cache      Cache
}

// NewService constructs the statement service. cache may be nil.
func NewService(reader Reader, households HouseholdLookup, cache Cache) *Service {
	return &Service{reader: reader, households: households, cache: cache}
}

// Statement returns the household ledger with running totals for the optional window.
func (s *Service) Statement(ctx context.Context, householdID uuid.UUID, from, to *time.Time) (Statement, error) {
	if _, err := s.households.Get(ctx, householdID); err != nil {
		return Statement{}, err
	}
	load := func(ctx context.Context) (any, error) {
		entries, err := s.reader.ListByHousehold(ctx, householdID, from, to)
		if err != nil {
			return nil, err
		}
		return BuildStatement(householdID, entries), nil
	}
	if s.cache == nil {
		st, err := load(ctx)
		if err != nil {
			return Statement{}, err
		}
		return st.(Statement), nil
	}
	key, err := s.cache.BuildKey(ctx, "ledger", householdID.String(), dateToken(from), dateToken(to))
	if err != nil {
		return Statement{}, err
	}
	var st Statement
	if err := s.cache.FetchJSON(ctx, key, &st, load); err != nil {
		return Statement{}, err
	}
	return st, nil
}

func dateToken(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

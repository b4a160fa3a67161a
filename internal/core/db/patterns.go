package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/solatis/eventtrail/internal/types"
)

// PatternStore persists named pattern definitions per tenant.
// Definitions are stored as JSON text; callers compile and checksum them
// before Insert, so every stored row is a valid pattern. Numbers are read
// back as json.Number so integer ids and checksums survive the round trip.
type PatternStore struct {
	queries *Queries
}

// NewPatternStore creates a store backed by named queries.
func NewPatternStore(queries *Queries) *PatternStore {
	return &PatternStore{queries: queries}
}

type patternRow struct {
	PatternID  string `db:"pattern_id"`
	TenantID   string `db:"tenant_id"`
	Name       string `db:"name"`
	Definition string `db:"definition"`
	Checksum   string `db:"checksum"`
	CreatedAt  string `db:"created_at"`
}

func (r patternRow) toStored() (*types.StoredPattern, error) {
	sp := &types.StoredPattern{
		PatternID: types.PatternID(r.PatternID),
		TenantID:  types.TenantID(r.TenantID),
		Name:      r.Name,
		Checksum:  r.Checksum,
		CreatedAt: r.CreatedAt,
	}
	dec := json.NewDecoder(strings.NewReader(r.Definition))
	dec.UseNumber()
	if err := dec.Decode(&sp.Definition); err != nil {
		return nil, fmt.Errorf("pattern %s: malformed definition: %w", r.PatternID, err)
	}
	return sp, nil
}

// ValidatePatternName checks the name is non-blank and within MaxPatternNameLength.
func ValidatePatternName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", types.ErrInvalidPatternName)
	}
	if len(name) > types.MaxPatternNameLength {
		return fmt.Errorf("%w: name exceeds %d bytes", types.ErrInvalidPatternName, types.MaxPatternNameLength)
	}
	return nil
}

// Insert stores sp, assigning PatternID and CreatedAt when empty.
func (s *PatternStore) Insert(ctx context.Context, sp *types.StoredPattern) error {
	if sp.TenantID == "" {
		return fmt.Errorf("tenant_id required")
	}
	if err := ValidatePatternName(sp.Name); err != nil {
		return err
	}

	definition, err := json.Marshal(&sp.Definition)
	if err != nil {
		return fmt.Errorf("failed to encode definition: %w", err)
	}

	if sp.PatternID == "" {
		sp.PatternID = types.NewPatternID()
	}
	if sp.CreatedAt == "" {
		sp.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = s.queries.ExecContext(ctx, "insert-pattern",
		string(sp.PatternID),
		string(sp.TenantID),
		sp.Name,
		string(definition),
		sp.Checksum,
		sp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pattern %q: %w", sp.Name, err)
	}
	return nil
}

// Get returns one pattern of the tenant.
// Returns types.ErrPatternNotFound if absent (or owned by another tenant).
func (s *PatternStore) Get(ctx context.Context, tenantID types.TenantID, id types.PatternID) (*types.StoredPattern, error) {
	var row patternRow
	err := s.queries.GetContext(ctx, "get-pattern", &row, string(tenantID), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrPatternNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return row.toStored()
}

// List returns the tenant's patterns oldest first (at most 10000).
func (s *PatternStore) List(ctx context.Context, tenantID types.TenantID) ([]*types.StoredPattern, error) {
	var rows []patternRow
	if err := s.queries.SelectContext(ctx, "list-patterns", &rows, string(tenantID)); err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	patterns := make([]*types.StoredPattern, 0, len(rows))
	for _, r := range rows {
		sp, err := r.toStored()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, sp)
	}
	return patterns, nil
}

// Delete removes one pattern of the tenant.
// Returns types.ErrPatternNotFound if nothing was deleted.
func (s *PatternStore) Delete(ctx context.Context, tenantID types.TenantID, id types.PatternID) error {
	res, err := s.queries.ExecContext(ctx, "delete-pattern", string(tenantID), string(id))
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrPatternNotFound, id)
	}
	return nil
}

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/solatis/eventtrail/internal/types"
)

// APIKeyStore records issued API keys. Only the HMAC of a key is stored;
// the plaintext key is shown once at creation.
type APIKeyStore struct {
	queries *Queries
}

// NewAPIKeyStore creates a store backed by named queries.
func NewAPIKeyStore(queries *Queries) *APIKeyStore {
	return &APIKeyStore{queries: queries}
}

// Insert records a key hash for tenantID and returns the new api_key_id.
func (s *APIKeyStore) Insert(ctx context.Context, tenantID types.TenantID, name, secretID string, keyHash []byte) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id required")
	}

	id := types.NewAPIKeyID()
	_, err := s.queries.ExecContext(ctx, "insert-api-key",
		id,
		string(tenantID),
		secretID,
		keyHash,
		name,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert api key: %w", err)
	}
	return id, nil
}

// Revoke marks a key revoked. Revoking twice is a no-op.
func (s *APIKeyStore) Revoke(ctx context.Context, apiKeyID string) error {
	if _, err := s.queries.ExecContext(ctx, "revoke-api-key", time.Now().UTC(), apiKeyID); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	return nil
}

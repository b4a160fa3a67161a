package api

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/solatis/eventtrail/internal/core/auth"
	"github.com/solatis/eventtrail/internal/core/metrics"
	"github.com/solatis/eventtrail/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// syncedPattern is the JSON shape of one pattern in a SyncPatterns response.
type syncedPattern struct {
	PatternID  types.PatternID          `json:"pattern_id"`
	Name       string                   `json:"name"`
	Definition *types.PatternDefinition `json:"definition"`
	Checksum   string                   `json:"checksum"`
	Describe   string                   `json:"describe"`
	MinSpan    int                      `json:"min_span"`
	MaxSpan    int                      `json:"max_span"`
	CreatedAt  string                   `json:"created_at"`
}

type syncPatternsResponse struct {
	Patterns    []syncedPattern `json:"patterns,omitempty"`
	ETag        string          `json:"etag"`
	NotModified bool            `json:"not_modified,omitempty"`
}

// SyncPatterns returns the caller's stored patterns.
// ETAG-based caching minimizes bandwidth when patterns are unchanged: a
// request whose if_none_match equals the current etag gets
// {etag, not_modified: true} and no patterns.
// Returns up to 10,000 patterns per tenant.
func (s *MatchAPIService) SyncPatterns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID := auth.TenantIDFromContext(ctx)
	if tenantID == "" {
		return nil, status.Error(codes.Internal, "missing tenant_id in context")
	}

	stored, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, statusError(err)
	}

	etag := computeETAG(stored)
	if req.GetFields()["if_none_match"].GetStringValue() == etag {
		return toStruct(syncPatternsResponse{ETag: etag, NotModified: true})
	}

	resp := syncPatternsResponse{
		Patterns: make([]syncedPattern, 0, len(stored)),
		ETag:     etag,
	}
	for _, sp := range stored {
		cp, err := s.engine.Load(sp)
		if err != nil {
			// Skip malformed pattern - continue processing others
			metrics.RecordCompileError()
			s.logger.Warn("skipping pattern that fails to compile", "pattern_id", sp.PatternID, "error", err)
			continue
		}
		resp.Patterns = append(resp.Patterns, syncedPattern{
			PatternID:  sp.PatternID,
			Name:       sp.Name,
			Definition: &sp.Definition,
			Checksum:   cp.Checksum,
			Describe:   cp.Pattern.String(),
			MinSpan:    cp.MinSpan,
			MaxSpan:    cp.MaxSpan,
			CreatedAt:  sp.CreatedAt,
		})
	}
	metrics.SetCachedPatterns(s.engine.Len())

	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// computeETAG generates content-addressable hash enabling bandwidth-efficient sync.
// Same (id, checksum) set always produces the same ETAG.
func computeETAG(stored []*types.StoredPattern) string {
	ids := make([]string, 0, len(stored))
	for _, sp := range stored {
		ids = append(ids, string(sp.PatternID)+":"+sp.Checksum)
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solatis/eventtrail/internal/core/auth"
	"github.com/solatis/eventtrail/internal/core/metrics"
	"github.com/solatis/eventtrail/internal/patterns"
	"github.com/solatis/eventtrail/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// evaluateRequest is the JSON shape of an Evaluate request.
// Exactly one of PatternID and Pattern, and one of History and Histories.
type evaluateRequest struct {
	PatternID types.PatternID          `json:"pattern_id"`
	Pattern   *types.PatternDefinition `json:"pattern"`
	History   json.RawMessage          `json:"history"`
	Histories []json.RawMessage        `json:"histories"`
}

// Evaluate matches one history, or a batch of histories, against a stored
// or inline pattern.
//
// Single history response: {matched, consumed, pattern_id}.
// Batch response: {results: [{matched, consumed, pattern_id}, ...]} in
// request order.
func (s *MatchAPIService) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID := auth.TenantIDFromContext(ctx)
	if tenantID == "" {
		return nil, status.Error(codes.Internal, "missing tenant_id in context")
	}

	var r evaluateRequest
	if err := unmarshalStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	batch := r.Histories != nil
	if batch == (r.History != nil) {
		return nil, status.Error(codes.InvalidArgument, "exactly one of history or histories required")
	}
	if len(r.Histories) > s.cfg.MaxBatchSize {
		return nil, status.Errorf(codes.InvalidArgument, "batch of %d histories exceeds max_batch_size %d", len(r.Histories), s.cfg.MaxBatchSize)
	}

	cp, err := s.resolvePattern(ctx, tenantID, &r)
	if err != nil {
		return nil, err
	}

	raw := r.Histories
	if !batch {
		raw = []json.RawMessage{r.History}
	}
	histories := make([]types.History, len(raw))
	for i, h := range raw {
		history, err := patterns.DecodeHistory(h)
		if err != nil {
			if batch {
				err = fmt.Errorf("histories[%d]: %w", i, err)
			}
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		histories[i] = history
	}

	results, err := s.engine.EvaluateMany(ctx, cp, histories)
	if err != nil {
		return nil, statusError(err)
	}

	out := make([]any, len(results))
	for i, res := range results {
		metrics.RecordEvaluation(res.Matched, len(histories[i]))
		out[i] = resultFields(res)
	}

	if !batch {
		return structpb.NewStruct(out[0].(map[string]any))
	}
	return structpb.NewStruct(map[string]any{"results": out})
}

// resolvePattern loads a stored pattern through the engine cache or
// compiles an inline one.
func (s *MatchAPIService) resolvePattern(ctx context.Context, tenantID types.TenantID, r *evaluateRequest) (*patterns.CompiledPattern, error) {
	switch {
	case r.PatternID != "" && r.Pattern != nil:
		return nil, status.Error(codes.InvalidArgument, "pattern_id and pattern are mutually exclusive")

	case r.PatternID != "":
		if _, err := types.ParsePatternID(string(r.PatternID)); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		sp, err := s.store.Get(ctx, tenantID, r.PatternID)
		if errors.Is(err, types.ErrPatternNotFound) {
			s.engine.Forget(r.PatternID)
			metrics.SetCachedPatterns(s.engine.Len())
		}
		if err != nil {
			return nil, statusError(err)
		}
		cp, err := s.engine.Load(sp)
		if err != nil {
			// Only reachable if compile limits tightened after insert.
			metrics.RecordCompileError()
			s.logger.Error("stored pattern failed to compile", "pattern_id", sp.PatternID, "error", err)
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		metrics.SetCachedPatterns(s.engine.Len())
		return cp, nil

	case r.Pattern != nil:
		cp, err := patterns.Compile(r.Pattern)
		if err != nil {
			metrics.RecordCompileError()
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return cp, nil

	default:
		return nil, status.Error(codes.InvalidArgument, "pattern_id or pattern required")
	}
}

func resultFields(res patterns.MatchResult) map[string]any {
	return map[string]any{
		"matched":    res.Matched,
		"consumed":   res.Consumed,
		"pattern_id": string(res.PatternID),
	}
}

// unmarshalStruct decodes a Struct into a Go value through its JSON form.
// Numbers decode as json.Number.
func unmarshalStruct(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed request: %w", err)
	}
	return nil
}

// toStruct encodes a Go value as a Struct through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

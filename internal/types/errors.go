package types

import "errors"

// Sentinel errors for EventTrail operations.
// Matching itself never fails; these surface at definition, decoding and
// storage boundaries.
var (
	// ErrUnknownAttribute indicates an attribute name outside the closed set.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrUnknownValueKind indicates a value kind outside the closed set.
	ErrUnknownValueKind = errors.New("unknown value kind")

	// ErrCoercionFailed indicates a raw value could not be coerced to its kind.
	ErrCoercionFailed = errors.New("value coercion failed")

	// ErrEmptyDefinition indicates a pattern definition with no variant set.
	ErrEmptyDefinition = errors.New("pattern definition is empty")

	// ErrAmbiguousDefinition indicates more than one variant set on one node.
	ErrAmbiguousDefinition = errors.New("pattern definition sets more than one variant")

	// ErrInvalidBounds indicates a repeat with negative bounds or max < min.
	ErrInvalidBounds = errors.New("invalid repeat bounds")

	// ErrRepeatTooLarge indicates a repeat bound exceeds MaxRepeatBound.
	ErrRepeatTooLarge = errors.New("repeat bound exceeds maximum")

	// ErrPatternTooDeep indicates a pattern tree exceeds MaxPatternDepth.
	ErrPatternTooDeep = errors.New("pattern exceeds maximum depth")

	// ErrTooManyNodes indicates a pattern tree exceeds MaxPatternNodes.
	ErrTooManyNodes = errors.New("pattern has too many nodes")

	// ErrHistoryTooLong indicates a decoded history exceeds MaxHistoryLength.
	ErrHistoryTooLong = errors.New("history exceeds maximum length")

	// ErrInvalidPatternName indicates an empty or oversized pattern name.
	ErrInvalidPatternName = errors.New("invalid pattern name")

	// ErrPatternNotFound indicates no stored pattern has the requested id.
	ErrPatternNotFound = errors.New("pattern not found")
)

package validation

import (
	"fmt"
	"strings"

	"sequence-platform/backend/internal/apperrors"
)

const (
	MinNameLength = 2
	MaxNameLength = 16

	MinRoomNameLength = 3
	MaxRoomNameLength = 30
)

// reservedNames can never be claimed as a display name, case-insensitively.
var reservedNames = map[string]struct{}{
	"admin":  {},
	"test":   {},
	"server": {},
	"system": {},
	"bot":    {},
	"ai":     {},
}

// NormalizeDisplayName trims and validates a requested display name and
// returns the canonical form stored on the session.
func NormalizeDisplayName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < MinNameLength {
		return "", fmt.Errorf("%w: name must be at least %d characters", apperrors.ErrInvalidName, MinNameLength)
	}
	if len(trimmed) > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", apperrors.ErrInvalidName, MaxNameLength)
	}
	if _, reserved := reservedNames[strings.ToLower(trimmed)]; reserved {
		return "", fmt.Errorf("%w: %q", apperrors.ErrNameReserved, trimmed)
	}
	return trimmed, nil
}

// NormalizeRoomName trims and validates a room name.
func NormalizeRoomName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < MinRoomNameLength {
		return "", fmt.Errorf("%w: room name must be at least %d characters", apperrors.ErrInvalidArg, MinRoomNameLength)
	}
	if len(trimmed) > MaxRoomNameLength {
		return "", fmt.Errorf("%w: room name must be at most %d characters", apperrors.ErrInvalidArg, MaxRoomNameLength)
	}
	return trimmed, nil
}

package validation

import (
	"errors"
	"testing"

	"sequence-platform/backend/internal/apperrors"
)

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"valid", "Alice", "Alice", nil},
		{"trims whitespace", "  Alice  ", "Alice", nil},
		{"minimum length", "Al", "Al", nil},
		{"maximum length", "abcdefghijklmnop", "abcdefghijklmnop", nil},
		{"too short", "A", "", apperrors.ErrInvalidName},
		{"too short after trim", " A ", "", apperrors.ErrInvalidName},
		{"too long", "abcdefghijklmnopq", "", apperrors.ErrInvalidName},
		{"empty", "", "", apperrors.ErrInvalidName},
		{"reserved lowercase", "admin", "", apperrors.ErrNameReserved},
		{"reserved mixed case", "AdMiN", "", apperrors.ErrNameReserved},
		{"reserved ai", "AI", "", apperrors.ErrNameReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDisplayName(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeRoomName(t *testing.T) {
	if _, err := NormalizeRoomName("   "); !errors.Is(err, apperrors.ErrInvalidArg) {
		t.Errorf("blank room name: error = %v, want ErrInvalidArg", err)
	}
	if _, err := NormalizeRoomName("ab"); !errors.Is(err, apperrors.ErrInvalidArg) {
		t.Errorf("short room name: error = %v, want ErrInvalidArg", err)
	}
	got, err := NormalizeRoomName("  High Stakes  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "High Stakes" {
		t.Errorf("got %q, want trimmed name", got)
	}
}

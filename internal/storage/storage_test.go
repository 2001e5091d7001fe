package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTrackID(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{"plain id", "4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"query suffix stripped", "4uLU6hMCjMI75M1A2tKUQC?si=abc", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"too short", "4uLU6hMCjMI75M1A2tKUQ", "", false},
		{"too long", "4uLU6hMCjMI75M1A2tKUQCx", "", false},
		{"illegal characters", "4uLU6hMCjMI75M1A2tKU_C", "", false},
		{"empty", "", "", false},
		{"only query", "?si=abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeTrackID(tt.raw)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "music/4uLU6hMCjMI75M1A2tKUQC.mp3", ObjectKey("4uLU6hMCjMI75M1A2tKUQC"))
}

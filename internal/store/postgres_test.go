package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsRecordNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bare sentinel", err: gorm.ErrRecordNotFound, want: true},
		{name: "wrapped sentinel", err: fmt.Errorf("query participant: %w", gorm.ErrRecordNotFound), want: true},
		{name: "other error", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRecordNotFound(tt.err))
		})
	}
}

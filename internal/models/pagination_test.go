package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name            string
		page, perPage   int
		defaultPerPage  int
		limit           int
		expectedNumber  int
		expectedPerPage int
	}{
		{"defaults", 0, 0, 20, 100, 1, 20},
		{"negative page", -3, 10, 20, 100, 1, 10},
		{"per page clamped to limit", 2, 500, 20, 50, 2, 50},
		{"limit above max", 1, 500, 20, 1000, 1, MaxPerPage},
		{"huge page clamped", math.MaxInt, 100, 20, 100, MaxPageNumber, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.page, tt.perPage, tt.defaultPerPage, tt.limit)
			assert.Equal(t, tt.expectedNumber, p.Number)
			assert.Equal(t, tt.expectedPerPage, p.PerPage)
		})
	}
}

func TestPageOffset_NeverNegative(t *testing.T) {
	for _, page := range []int{math.MaxInt, math.MaxInt / 2, math.MaxInt32, MaxPageNumber + 1} {
		p := NewPage(page, MaxPerPage, 20, MaxPerPage)
		offset := p.Offset()
		assert.GreaterOrEqual(t, offset, 0)
		assert.LessOrEqual(t, offset, math.MaxInt32)
	}

	assert.Equal(t, 40, NewPage(3, 20, 20, 100).Offset())
	assert.Equal(t, 0, Page{}.Offset())
}

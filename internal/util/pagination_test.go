package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		page, size  int
		offset, lim int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page", 3, 5, 10, 5},
		{"page below one", 0, 5, 0, 5},
		{"size zero", 2, 0, 10, 10},
		{"size over max", 1, 1000, 0, 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			off, lim := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, off)
			assert.Equal(t, tt.lim, lim)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4, ParseIntDefault("", 4))
	assert.Equal(t, 4, ParseIntDefault("x", 4))
	assert.Equal(t, 12, ParseIntDefault("12", 4))
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	p := NewPage([]int{4, 5}, 5, 3, 3)
	assert.Equal(t, 2, p.Meta.Page)
	assert.EqualValues(t, 2, p.Meta.TotalPages)
	assert.True(t, p.Meta.HasPrev)
	assert.False(t, p.Meta.HasNext)

	empty := NewPage[int](nil, 0, 0, 10)
	assert.NotNil(t, empty.Data)
	assert.EqualValues(t, 0, empty.Meta.TotalPages)
	assert.False(t, empty.Meta.HasNext)
}

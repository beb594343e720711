package service

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageDefaults(t *testing.T) {
	p := NewPage(0, 0, 6)
	assert.Equal(t, Page{Number: 1, Limit: 6}, p)
	assert.Equal(t, 0, p.Offset())

	p = NewPage(3, 500, 6)
	assert.Equal(t, maxPageLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())
}

func TestParsePageOutOfRange(t *testing.T) {
	_, err := ParsePage(math.MaxInt, 6, 6)
	assert.True(t, errors.Is(err, ErrInvalidInput), err)

	_, err = ParsePage(math.MaxInt/2, 0, 6)
	assert.True(t, errors.Is(err, ErrInvalidInput), err)

	p, err := ParsePage(math.MaxInt/6, 6, 6)
	require.NoError(t, err)
	assert.False(t, p.HasNext(math.MaxInt64/2))
	assert.True(t, p.Offset() > 0)
}

func TestPageHasNext(t *testing.T) {
	assert.True(t, NewPage(1, 2, 6).HasNext(3))
	assert.False(t, NewPage(2, 2, 6).HasNext(3))
	assert.False(t, NewPage(1, 6, 6).HasNext(6))
}

package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyArithmetic(t *testing.T) {
	price := MustMoney("10.005")
	assert.Equal(t, "10.01", price.String(), "rounded to cents on construction")

	total := Zero.Add(MustMoney("19.99").Times(2)).Add(MustMoney("0.02"))
	assert.Equal(t, "40.00", total.String())
	assert.True(t, total.Equals(MustMoney("40")))
	assert.True(t, total.IsPositive())
	assert.False(t, Zero.IsPositive())
}

func TestParseMoneyRejectsGarbage(t *testing.T) {
	_, err := ParseMoney("ten dollars")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var stacker Stacker
	require.True(t, errors.As(err, &stacker))
	assert.NotEmpty(t, stacker.Stack())
}

type evenSpec struct{}

func (evenSpec) IsSatisfiedBy(_ context.Context, n int) bool { return n%2 == 0 }

type positiveSpec struct{}

func (positiveSpec) IsSatisfiedBy(_ context.Context, n int) bool { return n > 0 }

func TestSpecificationComposition(t *testing.T) {
	ctx := context.Background()

	both := And[int](evenSpec{}, positiveSpec{})
	assert.True(t, both.IsSatisfiedBy(ctx, 4))
	assert.False(t, both.IsSatisfiedBy(ctx, -4))

	either := Or[int](evenSpec{}, positiveSpec{})
	assert.True(t, either.IsSatisfiedBy(ctx, -4))
	assert.False(t, either.IsSatisfiedBy(ctx, -3))

	assert.True(t, Not[int](evenSpec{}).IsSatisfiedBy(ctx, 3))
	assert.Nil(t, And[int]())
	assert.Equal(t, Specification[int](evenSpec{}), And[int](nil, evenSpec{}))
}

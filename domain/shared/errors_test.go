package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSeatTaken = errors.New("seat taken")

func TestDomainErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		entity   string
		field    string
	}{
		{"validation", NewValidationError("order_item", "quantity", "quantity must be positive"), ErrInvalidInput, "order_item", "quantity"},
		{"forbidden", NewForbiddenError("order", "not the buyer"), ErrForbidden, "order", ""},
		{"subdomain sentinel", NewDomainError(errSeatTaken, "goods", "", "seat already taken"), errSeatTaken, "goods", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, errors.Is(tc.err, tc.sentinel))

			var de *DomainError
			require.True(t, errors.As(tc.err, &de))
			assert.Equal(t, tc.entity, de.Entity)
			assert.Equal(t, tc.field, de.Field)

			stack := de.Stack()
			require.NotEmpty(t, stack)
			assert.LessOrEqual(t, len(stack), 10)
			assert.Contains(t, stack[0], "errors_test.go")
		})
	}
}

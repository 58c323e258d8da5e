package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedSentinelMatches(t *testing.T) {
	err := fmt.Errorf("insert schedule: %w", ErrConflict.Wrap(errors.New("duplicate key")))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad_range", "bad range"), http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{fmt.Errorf("get route: %w", ErrNotFound), http.StatusNotFound},
		{Unauthenticated("invalid_credentials", "nope"), http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{sql.ErrConnDone, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestPublicHidesInternalErrors(t *testing.T) {
	code, msg := Public(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal", code)
	assert.Equal(t, "Internal server error", msg)

	code, msg = Public(fmt.Errorf("wrap: %w", NotFound("route_not_found", "Route not found")))
	assert.Equal(t, "route_not_found", code)
	assert.Equal(t, "Route not found", msg)
}

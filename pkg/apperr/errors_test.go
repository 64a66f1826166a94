package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("donation %s: %w", "x", ErrNotFound): http.StatusNotFound,
		ErrForbidden:                      http.StatusForbidden,
		ErrUnauthorized:                   http.StatusUnauthorized,
		fmt.Errorf("qty: %w", ErrInvalidInput): http.StatusBadRequest,
		ErrConflict:                       http.StatusConflict,
		ErrInvalidTransition:              http.StatusConflict,
		errors.New("boom"):                http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

package echoapi

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/dictionary"
	"github.com/signbank/signbank/core/user"
)

func Test_errorResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  interface{}
		wantOK   bool
	}{
		{name: "http error", err: errHttpForbidden, wantCode: http.StatusForbidden, wantMsg: "permission denied", wantOK: true},
		{
			name:     "internal http error",
			err:      &echo.HTTPError{Code: http.StatusBadRequest, Message: "bad request", Internal: errHttpNotFound},
			wantCode: http.StatusNotFound, wantMsg: "not found", wantOK: true,
		},
		{name: "missing token", err: middleware.ErrJWTMissing, wantCode: http.StatusUnauthorized, wantMsg: middleware.ErrJWTMissing.Message, wantOK: true},
		{
			name:     "field errors",
			err:      core.NewValidationError(nil, core.FieldError{Field: "sn", Error: "sign number already taken"}),
			wantCode: http.StatusBadRequest, wantMsg: map[string]string{"sn": "sign number already taken"}, wantOK: true,
		},
		{
			name:     "validation error",
			err:      core.NewValidationError(errors.New("bad filter")),
			wantCode: http.StatusBadRequest, wantMsg: "bad filter", wantOK: true,
		},
		{name: "gloss not found", err: dictionary.ErrGlossNotFound, wantCode: http.StatusNotFound, wantMsg: "gloss not found", wantOK: true},
		{name: "user not found", err: user.ErrNotFound, wantCode: http.StatusNotFound, wantMsg: "user not found", wantOK: true},
		{name: "server error", err: errors.New("disk on fire")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg, ok := errorResponse(tt.err, nil)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

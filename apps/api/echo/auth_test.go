package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/signbank/signbank/core/user"
)

func Test_contextHasAnyRole(t *testing.T) {
	roles := []string{user.RoleResearcher, user.RoleAdmin, user.RoleEditor}
	claims := &Claims{Roles: roles}

	ctx := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	ctx.Set(tokenContextKey, &jwt.Token{Claims: claims})

	tests := []struct {
		name  string
		roles []string
		want  bool
	}{
		{name: "no roles required", want: true},
		{name: "one of the roles", roles: []string{"nope", user.RoleEditor}, want: true},
		{name: "none of the roles", roles: []string{"nope"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contextHasAnyRole(ctx, tt.roles))
			assert.Equal(t, []string{user.RoleResearcher, user.RoleAdmin, user.RoleEditor}, claims.Roles)
		})
	}

	anon := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.False(t, contextHasAnyRole(anon, []string{user.RoleAdmin}))
}

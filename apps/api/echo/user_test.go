package echoapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signbank/signbank/core/user"
	testutil "github.com/signbank/signbank/tests"
)

type userFixtures struct {
	admin, editor, researcher, guest, naughty user.User
}

func createUsers(t *testing.T, app *testApp) userFixtures {
	t.Helper()
	jan := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	return userFixtures{
		admin:      testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@signbank.test", "Adm1n!pwd", []string{user.RoleAdmin}, true, jan),
		editor:     testutil.CreateUser(t, app.usrRepo, "Eddie Editor", "eddie", "eddie@signbank.test", "pwd", []string{user.RoleEditor}, true, jan.AddDate(0, 1, 0)),
		researcher: testutil.CreateUser(t, app.usrRepo, "Rita Researcher", "rita", "rita@signbank.test", "pwd", []string{user.RoleResearcher}, true, jan.AddDate(0, 2, 0)),
		guest:      testutil.CreateUser(t, app.usrRepo, "Guest", "guest", "guest@signbank.test", "pwd", nil, true, jan.AddDate(0, 3, 0)),
		naughty:    testutil.CreateUser(t, app.usrRepo, "N Dog", "ndog", "ndog@signbank.test", "pwd", []string{user.RoleEditor}, false, jan.AddDate(0, 4, 0)), // 😂
	}
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	usrs := createUsers(t, app)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": reqMsg, "password": reqMsg}),
		},
		{
			name: "unknown user", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "nobody", Password: "pwd"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, LoginRequest{Username: "eddie", Password: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", wantCode: http.StatusForbidden,
			body:     marchallObj(t, LoginRequest{Username: "ndog", Password: "pwd"}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "by username", wantCode: http.StatusOK, body: marchallObj(t, LoginRequest{Username: " Eddie ", Password: "pwd"})},
		{name: "by email", wantCode: http.StatusOK, body: marchallObj(t, LoginRequest{Username: "eddie@signbank.test", Password: "pwd"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				unmarshalBody(t, rec, &resp)
				require.NotEmpty(t, resp.Token)

				claims := new(Claims)
				_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
					return []byte(app.conf.SecretKey), nil
				})
				require.NoError(t, err)
				assert.Equal(t, usrs.editor.ID, claims.Subject)
				assert.Equal(t, []string{user.RoleEditor}, claims.Roles)

				usr, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usrs.editor.ID})
				require.NoError(t, err)
				assert.True(t, usr.LastLogin.Valid)
			}
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	usrs := createUsers(t, app)

	unrefreshable, err := app.auth.generateToken(
		app.auth.userClaims(usrs.editor, time.Now().Add(-2*app.conf.Server.JWTRefreshExpirationDelta).Unix()),
	)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Invalid token", token: "lol", wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "Inactive user not allowed", token: app.getToken(t, usrs.naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshable, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: app.getToken(t, usrs.editor), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				unmarshalBody(t, rec, &resp)
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	usrs := createUsers(t, app)

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }
	adminToken := app.getToken(t, usrs.admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: app.getToken(t, usrs.editor), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken,
			wantData: marchallList(t, usrs.admin, usrs.editor, usrs.researcher, usrs.guest, usrs.naughty),
		},
		{name: "search (unknown)", path: path("lol", "", nil), token: adminToken, wantData: marchallList(t)},
		{name: "search=RES", path: path("RES", "", nil), token: adminToken, wantData: marchallList(t, usrs.researcher)},
		{
			name: "role=editor:", path: path("", "", nil, user.RoleEditor), token: adminToken,
			wantData: marchallList(t, usrs.editor, usrs.naughty),
		},
		{name: "is_active=false", path: path("", "", bPtr(false)), token: adminToken, wantData: marchallList(t, usrs.naughty)},
		{
			name: "order by -username", path: path("", "-username", bPtr(true)), token: adminToken,
			wantData: marchallList(t, usrs.researcher, usrs.guest, usrs.editor, usrs.admin),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_userApi_queryRoles(t *testing.T) {
	app := setup(t)
	usrs := createUsers(t, app)

	tt := httpTest{
		method: http.MethodGet, path: "/v1/users/roles", token: app.getToken(t, usrs.admin),
		wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles),
	}
	checkCodeAndData(t, tt, app.do(tt))
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)
	usrs := createUsers(t, app)
	adminToken := app.getToken(t, usrs.admin)

	reqMsg := "this field is required"
	eitherMsg := "one of username or email is required"
	pwd := "S1gnbank!Pwd"
	tests := []httpTest{
		{name: "Admin required", token: app.getToken(t, usrs.editor), wantCode: http.StatusForbidden},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{}),
			wantData: marchallObj(t, map[string]string{
				"name":             reqMsg,
				"username":         eitherMsg,
				"email":            eitherMsg,
				"password":         "password must contain at least 8 characters",
				"password_confirm": reqMsg,
			}),
		},
		{
			name: "username taken", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Name: "Eddie 2", Username: "Eddie", Password: pwd, PasswordConfirm: pwd}),
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "unknown role", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Name: "Lol", Username: "lol", Password: pwd, PasswordConfirm: pwd, Roles: []string{"lol:"}}),
			wantData: marchallObj(t, map[string]string{"roles": "invalid roles"}),
		},
		{
			name: "created", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, user.NewUser{Name: " Nadia ", Username: "Nadia", Email: "nadia@signbank.test", Password: pwd, PasswordConfirm: pwd, Roles: []string{user.RoleEditor}}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var usr user.User
				unmarshalBody(t, rec, &usr)
				assert.Equal(t, "Nadia", usr.Name)
				assert.Equal(t, "nadia", usr.Username)
				assert.True(t, usr.IsActive)
				assert.Equal(t, []string{user.RoleEditor}, usr.Roles)

				stored, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				require.NoError(t, err)
				assert.NoError(t, stored.CheckPassword(pwd))
			}
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	app := setup(t)
	usrs := createUsers(t, app)
	adminToken := app.getToken(t, usrs.admin)
	editorToken := app.getToken(t, usrs.editor)

	detailPath := func(usr user.User) string { return "/v1/users/" + usr.ID }
	notFound := marchallObj(t, httpErr{Error: "not found"})

	t.Run("retrieve", func(t *testing.T) {
		tests := []httpTest{
			{name: "Auth required", path: detailPath(usrs.editor), wantCode: http.StatusUnauthorized},
			{name: "self", path: detailPath(usrs.editor), token: editorToken, wantCode: http.StatusOK, wantData: marchallObj(t, usrs.editor)},
			{name: "someone else", path: detailPath(usrs.researcher), token: editorToken, wantCode: http.StatusNotFound, wantData: notFound},
			{name: "admin", path: detailPath(usrs.researcher), token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, usrs.researcher)},
			{name: "unknown", path: "/v1/users/4c0d4ee8-36e4-4b6e-b3b8-0b3b7c8d6b7e", token: adminToken, wantCode: http.StatusNotFound},
		}
		for _, tt := range tests {
			tt.method = http.MethodGet
			t.Run(tt.name, func(t *testing.T) {
				checkCodeAndData(t, tt, app.do(tt))
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		tests := []httpTest{
			{
				name: "non admin cannot change roles", path: detailPath(usrs.editor), token: editorToken,
				body: marchallObj(t, map[string]interface{}{"roles": []string{user.RoleAdmin}}), wantCode: http.StatusForbidden,
			},
			{
				name: "self name", path: detailPath(usrs.editor), token: editorToken,
				body: marchallObj(t, map[string]interface{}{"name": "Edward"}), wantCode: http.StatusOK,
			},
			{
				name: "admin deactivates", path: detailPath(usrs.researcher), token: adminToken,
				body: marchallObj(t, map[string]interface{}{"is_active": false}), wantCode: http.StatusOK,
			},
		}
		for _, tt := range tests {
			tt.method = http.MethodPut
			t.Run(tt.name, func(t *testing.T) {
				checkCodeAndData(t, tt, app.do(tt))
			})
		}

		edited, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usrs.editor.ID})
		require.NoError(t, err)
		assert.Equal(t, "Edward", edited.Name)
		assert.Equal(t, []string{user.RoleEditor}, edited.Roles)

		deactivated, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usrs.researcher.ID})
		require.NoError(t, err)
		assert.False(t, deactivated.IsActive)
	})

	t.Run("destroy", func(t *testing.T) {
		tests := []httpTest{
			{name: "Admin required", path: detailPath(usrs.editor), token: editorToken, wantCode: http.StatusForbidden},
			{name: "not self", path: detailPath(usrs.admin), token: adminToken, wantCode: http.StatusForbidden},
			{name: "deleted", path: detailPath(usrs.guest), token: adminToken, wantCode: http.StatusNoContent},
		}
		for _, tt := range tests {
			tt.method = http.MethodDelete
			t.Run(tt.name, func(t *testing.T) {
				checkCodeAndData(t, tt, app.do(tt))
			})
		}

		_, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usrs.guest.ID})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("destroy multiple", func(t *testing.T) {
		v := url.Values{"id": {usrs.naughty.ID, usrs.researcher.ID}}
		tt := httpTest{method: http.MethodDelete, path: "/v1/users?" + v.Encode(), token: adminToken, wantCode: http.StatusNoContent}
		checkCodeAndData(t, tt, app.do(tt))

		v.Add("id", usrs.admin.ID)
		tt = httpTest{method: http.MethodDelete, path: "/v1/users?" + v.Encode(), token: adminToken, wantCode: http.StatusForbidden}
		checkCodeAndData(t, tt, app.do(tt))

		users, err := app.usrRepo.QueryUsers(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/signbank/signbank/core"
	"github.com/signbank/signbank/core/user"
	testutil "github.com/signbank/signbank/tests"
)

func usernames(users []user.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	jan := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	admin := testutil.CreateUser(t, repo, "Alice Admin", "alice", "alice@signbank.test", "pwd", []string{user.RoleAdmin}, true, jan)
	editor := testutil.CreateUser(t, repo, "Bob Editor", "bob", "bob@signbank.test", "pwd", []string{user.RoleEditor, user.RoleResearcher}, true, jan.AddDate(0, 1, 0))
	inactive := testutil.CreateUser(t, repo, "Carol", "carol", "", "pwd", nil, false, jan.AddDate(0, 2, 0))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.GetFilter{ID: editor.ID})
		require.NoError(t, err)
		assert.Equal(t, editor, got)
		assert.NoError(t, got.CheckPassword("pwd"))

		got, err = repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{"alice@signbank.test"}})
		require.NoError(t, err)
		assert.Equal(t, admin.ID, got.ID)

		got, err = repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{"carol"}})
		require.NoError(t, err)
		assert.Equal(t, "", got.Email)
		assert.Nil(t, got.Roles)

		for _, filter := range []user.GetFilter{
			{ID: "not-a-uuid"},
			{ID: "4c0d4ee8-36e4-4b6e-b3b8-0b3b7c8d6b7e"},
			{UsernameOrEmail: []string{"dave"}},
			{},
		} {
			_, err = repo.GetUser(ctx, filter)
			assert.Equal(t, user.ErrNotFound, err)
		}
	})

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUsernameExists, repo.CheckUniqueness(ctx, "alice", "new@signbank.test"))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUniqueness(ctx, "new", "bob@signbank.test"))
		assert.NoError(t, repo.CheckUniqueness(ctx, "alice", "alice@signbank.test", admin))
		assert.NoError(t, repo.CheckUniqueness(ctx, "new", ""))
	})

	t.Run("query", func(t *testing.T) {
		isActive := true
		tests := []struct {
			name     string
			filter   *user.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{name: "all", want: []string{"alice", "bob", "carol"}},
			{name: "search name", filter: &user.QueryFilter{Search: "EDIT"}, want: []string{"bob"}},
			{name: "search email", filter: &user.QueryFilter{Search: "signbank.test"}, want: []string{"alice", "bob"}},
			{name: "role prefix", filter: &user.QueryFilter{Roles: []string{"research"}}, want: []string{"bob"}},
			{name: "roles", filter: &user.QueryFilter{Roles: []string{user.RoleAdmin, user.RoleEditor}}, want: []string{"alice", "bob"}},
			{name: "active", filter: &user.QueryFilter{IsActive: &isActive}, want: []string{"alice", "bob"}},
			{name: "created from", filter: &user.QueryFilter{CreatedFrom: jan.AddDate(0, 1, 0)}, want: []string{"bob", "carol"}},
			{name: "created to", filter: &user.QueryFilter{CreatedTo: jan.AddDate(0, 0, 1)}, want: []string{"alice"}},
			{name: "ordering", ordering: []core.DBOrdering{{Field: "username", Ascending: false}}, want: []string{"carol", "bob", "alice"}},
			{name: "unknown ordering", ordering: []core.DBOrdering{{Field: "password_hash"}}, want: []string{"alice", "bob", "carol"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users, err := repo.QueryUsers(ctx, tt.filter, tt.ordering)
				require.NoError(t, err)
				assert.Equal(t, tt.want, usernames(users))
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		inactive.IsActive = true
		inactive.Email = "carol@signbank.test"
		inactive.Roles = []string{user.RoleResearcher}
		inactive.LastLogin = null.TimeFrom(jan.AddDate(1, 0, 0))
		updated, err := repo.UpdateUser(ctx, inactive)
		require.NoError(t, err)

		got, err := repo.GetUser(ctx, user.GetFilter{ID: inactive.ID})
		require.NoError(t, err)
		assert.Equal(t, updated, got)
		assert.True(t, got.LastLogin.Time.Equal(jan.AddDate(1, 0, 0)))

		_, err = repo.UpdateUser(ctx, user.User{ID: "4c0d4ee8-36e4-4b6e-b3b8-0b3b7c8d6b7e"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUsers(ctx, admin.ID, editor.ID))
		require.NoError(t, repo.DeleteUsers(ctx))
		users, err := repo.QueryUsers(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"carol"}, usernames(users))
	})
}

package users_test

import (
	"errors"
	"testing"
	"time"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpsystems/internal/testsupport"
	"jpsystems/internal/users"
)

func TestRegister(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	t.Run("creates a regular account", func(t *testing.T) {
		user, err := users.Register(db, &users.RegisterInput{
			Email:     "  New.Customer@Example.COM ",
			Password:  "secret123",
			FirstName: " Jane ",
			LastName:  " Doe ",
		})
		require.NoError(t, err)

		assert.Equal(t, "new.customer@example.com", user.Email)
		assert.Equal(t, "Jane", user.FirstName)
		assert.Equal(t, "Doe", user.LastName)
		assert.Equal(t, users.RoleUser, user.Role)
		assert.False(t, user.CreatedAt.IsZero())
		assert.True(t, crypto.VerifyPassword(user.EncryptedPassword, "secret123"))
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := users.Register(db, &users.RegisterInput{
			Email:    "dup@example.com",
			Password: "secret123",
		})
		require.NoError(t, err)

		_, err = users.Register(db, &users.RegisterInput{
			Email:    "dup@example.com",
			Password: "other456",
		})
		assert.True(t, errors.Is(err, users.ErrUserExists))
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		_, err := users.Register(db, &users.RegisterInput{Password: "x"})
		require.Error(t, err)

		_, err = users.Register(db, &users.RegisterInput{Email: "a@b.c"})
		require.Error(t, err)
	})
}

func TestChangeRole(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	admin := testsupport.CreateTestUserForAuth(t, db, "admin@example.com", "password", users.RoleAdmin)
	member := testsupport.CreateTestUserForAuth(t, db, "member@example.com", "password", users.RoleUser)

	t.Run("promotes a user", func(t *testing.T) {
		require.NoError(t, users.ChangeRole(db, admin.ID, member.ID, users.RoleAdmin))

		updated, err := users.FindByID(db, member.ID)
		require.NoError(t, err)
		assert.Equal(t, users.RoleAdmin, updated.Role)
	})

	t.Run("demotes back to user", func(t *testing.T) {
		require.NoError(t, users.ChangeRole(db, admin.ID, member.ID, users.RoleUser))

		updated, err := users.FindByID(db, member.ID)
		require.NoError(t, err)
		assert.Equal(t, users.RoleUser, updated.Role)
	})

	t.Run("admin cannot change their own role", func(t *testing.T) {
		err := users.ChangeRole(db, admin.ID, admin.ID, users.RoleUser)
		assert.True(t, errors.Is(err, users.ErrSelfDemotion))

		unchanged, err := users.FindByID(db, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, users.RoleAdmin, unchanged.Role)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		err := users.ChangeRole(db, admin.ID, member.ID, "superuser")
		assert.True(t, errors.Is(err, users.ErrInvalidRole))
	})

	t.Run("unknown target", func(t *testing.T) {
		err := users.ChangeRole(db, admin.ID, 99999, users.RoleAdmin)
		assert.True(t, errors.Is(err, users.ErrUserNotFound))
	})
}

func TestList(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	testsupport.CreateTestUserForAuth(t, db, "alice@example.com", "password", users.RoleAdmin)
	bob := testsupport.CreateTestUserForAuth(t, db, "bob@example.com", "password", users.RoleUser)
	bob.FirstName = "Bob"
	bob.LastName = "Builder"
	require.NoError(t, db.Save(bob).Error)

	t.Run("returns everyone without a filter", func(t *testing.T) {
		list, err := users.List(db, "")
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("filters by email", func(t *testing.T) {
		list, err := users.List(db, "ALICE")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "alice@example.com", list[0].Email)
	})

	t.Run("filters by name", func(t *testing.T) {
		list, err := users.List(db, "builder")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "bob@example.com", list[0].Email)
	})

	t.Run("filters by role", func(t *testing.T) {
		list, err := users.List(db, "admin")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "alice@example.com", list[0].Email)
	})
}

func TestRegistrationsSince(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	now := time.Now().UTC()
	testsupport.CreateRegisteredUserAt(t, db, "old@example.com", now.AddDate(0, 0, -30))
	testsupport.CreateRegisteredUserAt(t, db, "recent@example.com", now.AddDate(0, 0, -3))
	testsupport.CreateRegisteredUserAt(t, db, "today@example.com", now)

	stamps, err := users.RegistrationsSince(db, now.AddDate(0, 0, -14))
	require.NoError(t, err)
	assert.Len(t, stamps, 2)

	source := users.NewGormSource(db)
	records, err := source.RegistrationsSince(now.AddDate(0, 0, -14))
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.False(t, r.CreatedAt.IsZero())
	}
}

func TestCreateAdminUser(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	require.NoError(t, users.CreateAdminUser(db, "root@example.com", "secret123"))

	user, err := users.FindByEmail(db, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, user.Role)

	assert.True(t, errors.Is(users.CreateAdminUser(db, "root@example.com", "other"), users.ErrUserExists))
}

func TestChangePassword(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	require.NoError(t, users.CreateAdminUser(db, "pw@example.com", "before123"))
	require.NoError(t, users.ChangePassword(db, "pw@example.com", "after456"))

	user, err := users.FindByEmail(db, "pw@example.com")
	require.NoError(t, err)
	assert.True(t, crypto.VerifyPassword(user.EncryptedPassword, "after456"))
	assert.False(t, crypto.VerifyPassword(user.EncryptedPassword, "before123"))
}

package cmd

import (
	"fillop/database"
	"fillop/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateAdmin(t *testing.T) {
	db, err := database.ConnectMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	user, err := CreateAdmin(db, "  Root@Fillop.TEST ", "secret123", "Root")
	require.NoError(t, err)
	assert.Equal(t, "root@fillop.test", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, models.StatusActive, user.Status)
	assert.True(t, user.IsEmailVerified)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))

	_, err = CreateAdmin(db, "root@fillop.test", "another-pass", "Again")
	assert.ErrorContains(t, err, "already exists")

	_, err = CreateAdmin(db, "short@fillop.test", "12345", "Short")
	assert.Error(t, err)
	_, err = CreateAdmin(db, " ", "secret123", "Nobody")
	assert.Error(t, err)
}

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCommand.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "create-admin"} {
		assert.True(t, names[want], want)
	}

	sub, _, err := RootCommand.Find([]string{"create-admin"})
	require.NoError(t, err)
	assert.Equal(t, createAdminCommand, sub)
}

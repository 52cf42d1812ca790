package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserJSON_OmitsPasswordHash(t *testing.T) {
	u := User{ID: 1, Username: "admin", PasswordHash: "$2a$10$secret", Nama: "Administrator", Role: RoleAdmin}

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")
	assert.NotContains(t, string(b), "$2a$10$secret")
	assert.Contains(t, string(b), `"role":"Admin"`)
}

func TestHashPassword(t *testing.T) {
	old := BcryptCost
	BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { BcryptCost = old })

	h1, err := HashPassword("admin123")
	require.NoError(t, err)
	h2, err := HashPassword("admin123")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "salt must differ")
	assert.True(t, CheckPassword(h1, "admin123"))
	assert.False(t, CheckPassword(h1, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "admin123"))
}

func TestRoleAndStatusValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("admin").Valid())

	assert.True(t, StatusOnHold.Valid())
	assert.False(t, Status("Done").Valid())
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-15"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, d.Equal(back.Time))
	require.Error(t, json.Unmarshal([]byte(`"15/03/2024"`), &back))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", v)

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2024, 3, 15, 13, 0, 0, 0, time.Local)))
	assert.Equal(t, "2024-03-15", scanned.String())
	require.NoError(t, scanned.Scan([]byte("2024-01-02 00:00:00")))
	assert.Equal(t, "2024-01-02", scanned.String())
	require.Error(t, scanned.Scan(42))
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: 50, Total: 101, TotalPages: 3}, NewPage(1, 50, 101))
	assert.Equal(t, 0, NewPage(1, 50, 0).TotalPages)
}

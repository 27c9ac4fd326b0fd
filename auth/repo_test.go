package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepositoryContract checks the behaviour every Repository must share.
func testRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()

	acc, err := repo.Create(ctx, Profile{Username: "jimi", Fullname: "Jimi O", Email: "jimi@example.com"}, "hash")
	require.NoError(t, err)
	assert.True(t, IsValidID(string(acc.ID)))
	assert.Equal(t, "hash", acc.PasswordHash)
	assert.False(t, acc.CreatedAt.IsZero())

	t.Run("lookups", func(t *testing.T) {
		byID, err := repo.FindByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.Profile(), byID.Profile())

		byName, err := repo.FindByName(ctx, "jimi")
		require.NoError(t, err)
		assert.Equal(t, acc.ID, byName.ID)

		byEmail, err := repo.FindByEmail(ctx, "jimi@example.com")
		require.NoError(t, err)
		assert.Equal(t, acc.ID, byEmail.ID)

		_, err = repo.FindByName(ctx, "JIMI")
		assert.True(t, errors.Is(err, ErrNotFound))
		_, err = repo.FindByID(ctx, NewID())
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("create enforces uniqueness", func(t *testing.T) {
		_, err := repo.Create(ctx, Profile{Username: "jimi", Fullname: "X", Email: "other@example.com"}, "h")
		var dup *DuplicateKeyError
		require.True(t, errors.As(err, &dup), "got %v", err)
		assert.Equal(t, "username", dup.Field)

		_, err = repo.Create(ctx, Profile{Username: "other", Fullname: "X", Email: "jimi@example.com"}, "h")
		require.True(t, errors.As(err, &dup), "got %v", err)
		assert.Equal(t, "email", dup.Field)
	})

	t.Run("update is partial", func(t *testing.T) {
		email := "new@example.com"
		updated, err := repo.UpdateByID(ctx, acc.ID, ProfileChanges{Email: &email})
		require.NoError(t, err)
		assert.Equal(t, acc.ID, updated.ID)
		assert.Equal(t, Profile{Username: "jimi", Fullname: "Jimi O", Email: email}, updated.Profile())
		assert.Equal(t, "hash", updated.PasswordHash)

		same, err := repo.UpdateByID(ctx, acc.ID, ProfileChanges{})
		require.NoError(t, err)
		assert.Equal(t, updated.Profile(), same.Profile())

		_, err = repo.UpdateByID(ctx, NewID(), ProfileChanges{Email: &email})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("update enforces uniqueness", func(t *testing.T) {
		other, err := repo.Create(ctx, Profile{Username: "other", Fullname: "Other", Email: "other@example.com"}, "h")
		require.NoError(t, err)

		taken := "jimi"
		_, err = repo.UpdateByID(ctx, other.ID, ProfileChanges{Username: &taken})
		assert.True(t, errors.Is(err, ErrDuplicateKey), "got %v", err)
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := repo.DeleteByID(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, deleted.ID)

		_, err = repo.DeleteByID(ctx, acc.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
		_, err = repo.FindByID(ctx, acc.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestAccountRepository(t *testing.T) {
	testRepositoryContract(t, NewAccountRepository())
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	acc, err := repo.Create(ctx, Profile{Username: "jimi", Fullname: "Jimi", Email: "j@example.com"}, "h")
	require.NoError(t, err)

	acc.Username = "mutated"

	found, err := repo.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "jimi", found.Username)
}

func TestAccountRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, Profile{Username: "same", Fullname: "Same", Email: string(NewID()) + "@example.com"}, "h")
		}(i)
	}
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, errors.Is(err, ErrDuplicateKey))
	}
	assert.Equal(t, 1, created)
}

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-claimform/internal/storage"
	"github.com/goliatone/go-claimform/pkg/answers"
	"github.com/goliatone/go-claimform/pkg/progress"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "claimform.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *Store, id, email string) storage.User {
	t.Helper()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u := storage.User{ID: id, Email: email, PasswordHash: "hash", State: storage.UserActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.PutUser(context.Background(), u))
	return u
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimform.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	u := seedUser(t, store, "u1", "Vet@Example.com")

	got, err := store.FindActiveUserByEmail(ctx, "vet@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "vet@example.com", got.Email)
	assert.True(t, got.CreatedAt.Equal(u.CreatedAt))

	err = store.PutUser(ctx, storage.User{ID: "u2", Email: "VET@example.com", State: storage.UserActive})
	assert.ErrorIs(t, err, storage.ErrConflict)

	require.NoError(t, store.PutUser(ctx, storage.User{ID: "u3", Email: "vet@example.com", State: storage.UserInactive}))

	_, err = store.FindActiveUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.UpdatePassword(ctx, "u1", "new-hash", time.Now()))
	got, err = store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, store.UpdatePassword(ctx, "missing", "x", time.Now()), storage.ErrNotFound)
	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClaimsAndForms(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedUser(t, store, "u1", "vet@example.com")
	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := store.FindIncompleteClaim(ctx, "u1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	claim := storage.Claim{ID: "c1", UserID: "u1", State: storage.ClaimIncomplete, CreatedAt: now, UpdatedAt: now}
	forms := []storage.Form{
		{ID: "f1", Key: "intake", UserID: "u1", Summary: progress.Summary{RequiredQuestions: 3}, UpdatedAt: now},
		{ID: "f2", Key: "contact", UserID: "u1", Summary: progress.Baseline(), UpdatedAt: now},
	}
	require.NoError(t, store.CreateClaimWithForms(ctx, claim, forms))

	found, err := store.FindIncompleteClaim(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", found.ID)
	assert.True(t, found.CreatedAt.Equal(now))

	err = store.CreateClaimWithForms(ctx, storage.Claim{ID: "c2", UserID: "u1", State: storage.ClaimIncomplete}, nil)
	assert.ErrorIs(t, err, storage.ErrConflict)

	listed, err := store.ListForms(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "contact", listed[0].Key)
	assert.Equal(t, "c1", listed[0].ClaimID)
	assert.Equal(t, progress.Summary{RequiredQuestions: 3}, listed[1].Summary)
	assert.Empty(t, listed[1].Responses)

	update := listed[1]
	update.Responses = answers.Set{"name": answers.String("Ada"), "age": answers.Number(40), "vet": answers.Bool(true)}
	update.Summary = progress.Summary{RequiredQuestions: 3, AnsweredRequired: 2}
	require.NoError(t, store.UpdateForm(ctx, update))

	got, err := store.GetForm(ctx, "c1", "intake")
	require.NoError(t, err)
	assert.Equal(t, update.Summary, got.Summary)
	assert.Equal(t, "Ada", got.Responses.Get("name").Display())
	n, ok := got.Responses.Get("age").Num()
	assert.True(t, ok)
	assert.Equal(t, float64(40), n)
	assert.True(t, got.Responses.Get("vet").Truthy())

	_, err = store.GetForm(ctx, "c1", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.UpdateForm(ctx, storage.Form{ClaimID: "c1", Key: "missing"}), storage.ErrNotFound)

	require.NoError(t, store.TransitionClaimState(ctx, "c1", storage.ClaimIncomplete, storage.ClaimSubmitted, now))
	assert.ErrorIs(t, store.TransitionClaimState(ctx, "c1", storage.ClaimIncomplete, storage.ClaimSubmitted, now), storage.ErrStateChanged)
	assert.ErrorIs(t, store.TransitionClaimState(ctx, "nope", storage.ClaimIncomplete, storage.ClaimSubmitted, now), storage.ErrNotFound)
	require.NoError(t, store.SetClaimState(ctx, "c1", storage.ClaimSubmitted, now))
	_, err = store.FindIncompleteClaim(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.SetClaimState(ctx, "nope", storage.ClaimDiscarded, now), storage.ErrNotFound)

	require.NoError(t, store.CreateClaimWithForms(ctx, storage.Claim{ID: "c2", UserID: "u1", State: storage.ClaimIncomplete}, nil))
	assert.ErrorIs(t, store.SetClaimState(ctx, "c1", storage.ClaimIncomplete, now), storage.ErrConflict)
	assert.ErrorIs(t, store.TransitionClaimState(ctx, "c1", storage.ClaimSubmitted, storage.ClaimIncomplete, now), storage.ErrConflict)
}

func TestCreateClaimWithFormsRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedUser(t, store, "u1", "vet@example.com")

	claim := storage.Claim{ID: "c1", UserID: "u1", State: storage.ClaimIncomplete}
	forms := []storage.Form{
		{ID: "dup", Key: "a", UserID: "u1"},
		{ID: "dup", Key: "b", UserID: "u1"},
	}
	require.Error(t, store.CreateClaimWithForms(ctx, claim, forms))

	_, err := store.GetClaim(ctx, "c1")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "claim should not survive a failed form insert")
}

func TestLetters(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	seedUser(t, store, "u1", "vet@example.com")

	letter := storage.Letter{
		ID:               "l1",
		UserID:           "u1",
		VendorID:         "ltr_123",
		ExpectedDelivery: "2024-02-01",
		To:               storage.Address{Name: "Evidence Intake Center", City: "Janesville"},
		From:             storage.Address{Name: "Ada", Street1: "1 Main St"},
		CreatedAt:        time.Now(),
	}
	require.NoError(t, store.PutLetter(ctx, letter))

	got, err := store.ListLetters(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, letter.To, got[0].To)
	assert.Equal(t, letter.From, got[0].From)
	assert.Empty(t, got[0].Documents)
	assert.Equal(t, "ltr_123", got[0].VendorID)
}

func TestNilStore(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Close())
	_, err := store.GetUser(context.Background(), "x")
	assert.Error(t, err)
}

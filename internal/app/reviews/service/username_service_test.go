package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"rowanberries/internal/app/reviews/entity"
	"rowanberries/internal/app/reviews/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsernameFixture() (*UsernameService, *repository.MemoryTxStore) {
	store := repository.NewMemoryTxStore(100)
	return NewUsernameService(store), store
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "avi", NormalizeHandle("Avi "))
	assert.Equal(t, "avi", NormalizeHandle("  AVI"))
	assert.Equal(t, "avi", NormalizeHandle("avi"))
}

func TestReserve_Success(t *testing.T) {
	service, store := newUsernameFixture()

	token, err := service.Reserve(context.Background(), "NewUser")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "newuser:"))

	var res entity.UsernameReservation
	found, err := store.Get(repository.DocKey{Collection: repository.CollUsernames, ID: "newuser"}, &res)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entity.ReservationProvisional, res.Status)
	assert.Equal(t, token, res.OwnerID)
}

func TestReserve_NormalizedCollision(t *testing.T) {
	service, _ := newUsernameFixture()
	ctx := context.Background()

	_, err := service.Reserve(ctx, "avi")
	require.NoError(t, err)

	// "Avi " нормализуется в тот же "avi"
	token, err := service.Reserve(ctx, "Avi ")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Empty(t, token)
}

func TestReserve_TooShortBeforeStoreAccess(t *testing.T) {
	// Хранилище с нулевым лимитом ретраев: любое обращение к нему
	// завершилось бы ErrConflictExceeded, а не ErrUsernameTooShort
	store := repository.NewMemoryTxStore(1)
	service := NewUsernameService(store)

	token, err := service.Reserve(context.Background(), "ab")
	assert.ErrorIs(t, err, ErrUsernameTooShort)
	assert.Empty(t, token)

	// После трима "ab " тоже короче минимума
	token, err = service.Reserve(context.Background(), " ab ")
	assert.ErrorIs(t, err, ErrUsernameTooShort)
	assert.Empty(t, token)

	found, err := store.Get(repository.DocKey{Collection: repository.CollUsernames, ID: "ab"}, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReserve_ConcurrentSameHandleOneWinner(t *testing.T) {
	service, _ := newUsernameFixture()
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)

	var mu sync.Mutex
	var wins, taken int

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := service.Reserve(ctx, "Avi")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, ErrUsernameTaken):
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, taken)
}

func TestConfirm_RebindsToMember(t *testing.T) {
	service, store := newUsernameFixture()
	ctx := context.Background()

	token, err := service.Reserve(ctx, "avi")
	require.NoError(t, err)

	require.NoError(t, service.Confirm(ctx, token, "member-42"))

	var res entity.UsernameReservation
	_, err = store.Get(repository.DocKey{Collection: repository.CollUsernames, ID: "avi"}, &res)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationConfirmed, res.Status)
	assert.Equal(t, "member-42", res.OwnerID)
	assert.NotNil(t, res.ConfirmedAt)
}

func TestConfirm_WrongToken(t *testing.T) {
	service, _ := newUsernameFixture()
	ctx := context.Background()

	_, err := service.Reserve(ctx, "avi")
	require.NoError(t, err)

	err = service.Confirm(ctx, "avi:not-the-real-token", "member-42")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestConfirm_MalformedToken(t *testing.T) {
	service, _ := newUsernameFixture()

	err := service.Confirm(context.Background(), "no-separator", "member-42")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestRelease_FreesProvisional(t *testing.T) {
	service, store := newUsernameFixture()
	ctx := context.Background()

	token, err := service.Reserve(ctx, "avi")
	require.NoError(t, err)

	require.NoError(t, service.Release(ctx, token))

	found, err := store.Get(repository.DocKey{Collection: repository.CollUsernames, ID: "avi"}, nil)
	require.NoError(t, err)
	assert.False(t, found)

	// Handle снова свободен
	_, err = service.Reserve(ctx, "avi")
	assert.NoError(t, err)
}

func TestRelease_DoesNotTouchConfirmed(t *testing.T) {
	service, store := newUsernameFixture()
	ctx := context.Background()

	token, err := service.Reserve(ctx, "avi")
	require.NoError(t, err)
	require.NoError(t, service.Confirm(ctx, token, "member-42"))

	// Запоздавшая компенсация со старым токеном не снимает
	// подтверждённую резервацию
	require.NoError(t, service.Release(ctx, token))

	var res entity.UsernameReservation
	found, err := store.Get(repository.DocKey{Collection: repository.CollUsernames, ID: "avi"}, &res)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entity.ReservationConfirmed, res.Status)
}

func TestRelease_AbsentIsNoop(t *testing.T) {
	service, _ := newUsernameFixture()

	err := service.Release(context.Background(), "avi:some-token")
	assert.NoError(t, err)
}

func TestCheckAvailable(t *testing.T) {
	service, _ := newUsernameFixture()
	ctx := context.Background()

	available, err := service.CheckAvailable(ctx, "avi")
	require.NoError(t, err)
	assert.True(t, available)

	_, err = service.Reserve(ctx, "avi")
	require.NoError(t, err)

	available, err = service.CheckAvailable(ctx, "Avi ")
	require.NoError(t, err)
	assert.False(t, available)

	_, err = service.CheckAvailable(ctx, "ab")
	assert.ErrorIs(t, err, ErrUsernameTooShort)
}

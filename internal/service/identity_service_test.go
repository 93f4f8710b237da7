package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityService_CreatesOnFirstSight(t *testing.T) {
	db := setupTestDB(t)
	profiles := &profileStub{profile: auth.Profile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", ImageURL: "https://img.example/ada.png"}}
	svc := NewIdentityService(repository.NewUserRepository(db), profiles)
	ctx := context.Background()

	user, err := svc.Resolve(ctx, "user_ada")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "https://img.example/ada.png", user.ImageURL)

	again, err := svc.Resolve(ctx, "user_ada")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, 1, profiles.calls)
}

func TestIdentityService_DefaultName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewIdentityService(repository.NewUserRepository(db), &profileStub{})

	user, err := svc.Resolve(context.Background(), "user_anon")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDisplayName, user.Name)
	assert.Empty(t, user.Email)
}

func TestIdentityService_EmptyIdentity(t *testing.T) {
	svc := NewIdentityService(nil, nil)
	_, err := svc.Resolve(context.Background(), "  ")
	assertCode(t, err, models.CodeUnauthorized)
}

func TestIdentityService_ProfileFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewIdentityService(repository.NewUserRepository(db), &profileStub{err: errors.New("provider down")})

	_, err := svc.Resolve(context.Background(), "user_x")
	assertCode(t, err, models.CodeUpstream)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestIdentityService_ConcurrentFirstSight(t *testing.T) {
	db := setupTestDB(t)
	svc := NewIdentityService(repository.NewUserRepository(db), &profileStub{profile: auth.Profile{FirstName: "Race"}})

	const workers = 2
	ids := make([]uint, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.Resolve(context.Background(), "user_race")
			errs[i] = err
			if u != nil {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, ids[0], ids[1])

	var n int64
	require.NoError(t, db.Model(&models.User{}).Where("external_id = ?", "user_race").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

// userRepoStub forces the conflict path deterministically.
type userRepoStub struct {
	getFn    func(context.Context, string) (*models.User, error)
	createFn func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(context.Context, uint) (*models.User, error) { return nil, nil }
func (s *userRepoStub) GetByExternalID(ctx context.Context, id string) (*models.User, error) {
	return s.getFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }

func TestIdentityService_ConflictRefetches(t *testing.T) {
	calls := 0
	repo := &userRepoStub{
		getFn: func(_ context.Context, id string) (*models.User, error) {
			calls++
			if calls == 1 {
				return nil, models.NewNotFoundError("User", id)
			}
			return &models.User{ID: 7, ExternalID: id}, nil
		},
		createFn: func(context.Context, *models.User) error {
			return models.NewConflictError("User already exists", nil)
		},
	}
	svc := NewIdentityService(repo, &profileStub{})

	user, err := svc.Resolve(context.Background(), "user_dup")
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, 2, calls)
}

//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6.0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))

	var client *mongo.Client
	if err := pool.Retry(func() error {
		var errRetry error
		client, errRetry = NewMongoClient(context.Background(), uri)
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}
	testDB = client.Database("account_service_test")

	code := m.Run()

	_ = client.Disconnect(context.Background())
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func newTestRepo(t *testing.T) *UserRepository {
	t.Helper()
	require.NoError(t, testDB.Collection(usersCollection).Drop(context.Background()))
	return NewUserRepository(testDB, logger.NewNop())
}

func newUser(email string) *entity.User {
	return &entity.User{
		Name:         "Ann",
		Email:        email,
		Phone:        "5551234567",
		PasswordHash: "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z6bJ0uQ1Y3l3G8t5E7Q8p3eS",
		Role:         entity.RoleUser,
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := newUser("ann@x.com")
	require.NoError(t, repo.Create(ctx, u))
	require.False(t, u.ID.IsZero())
	assert.False(t, u.CreatedAt.IsZero())

	byEmail, err := repo.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, u.PasswordHash, byEmail.PasswordHash)
	assert.Nil(t, byEmail.ResetPasswordToken)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.FindByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("ann@x.com")))
	err := repo.Create(ctx, newUser("ann@x.com"))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestUserRepository_ResetTokenLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := newUser("ann@x.com")
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.SetResetToken(ctx, u.ID, "abc123", now.Add(time.Hour)))

	found, err := repo.FindByResetToken(ctx, "abc123", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, u.Name, found.Name)
	require.NotNil(t, found.ResetPasswordExpires)

	_, err = repo.FindByResetToken(ctx, "abc123", now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrUserNotFound, "expiry must be strictly after now")
	_, err = repo.FindByResetToken(ctx, "other", now)
	assert.ErrorIs(t, err, ErrUserNotFound)

	newHash := "$2a$10$newhashnewhashnewhashnewhashnewhashnewhashnewhashnewh"
	consumed, err := repo.ConsumeResetToken(ctx, "abc123", now, newHash)
	require.NoError(t, err)
	assert.Equal(t, newHash, consumed.PasswordHash)
	assert.Nil(t, consumed.ResetPasswordToken)

	_, err = repo.ConsumeResetToken(ctx, "abc123", now, "$2a$10$second")
	assert.ErrorIs(t, err, ErrUserNotFound)

	raw := bson.M{}
	require.NoError(t, testDB.Collection(usersCollection).FindOne(ctx, bson.M{"_id": u.ID}).Decode(&raw))
	assert.NotContains(t, raw, "resetPasswordToken")
	assert.NotContains(t, raw, "resetPasswordExpires")
	assert.Equal(t, newHash, raw["password"])
}

func TestUserRepository_ConsumeExpiredToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := newUser("ann@x.com")
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.SetResetToken(ctx, u.ID, "abc123", now))

	_, err := repo.ConsumeResetToken(ctx, "abc123", now, "$2a$10$late")
	assert.ErrorIs(t, err, ErrUserNotFound)

	stored, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, stored.PasswordHash)
}

func TestUserRepository_ClearResetTokenOnlyMatchingToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := newUser("ann@x.com")
	require.NoError(t, repo.Create(ctx, u))
	name := "Annie"
	_, err := repo.Update(ctx, u.ID, entity.ProfileChanges{Name: &name})
	require.NoError(t, err)
	require.NoError(t, repo.SetResetToken(ctx, u.ID, "newer", now.Add(time.Hour)))

	require.NoError(t, repo.ClearResetToken(ctx, u.ID, "older"))
	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResetPasswordToken)
	assert.Equal(t, "Annie", got.Name)

	require.NoError(t, repo.ClearResetToken(ctx, u.ID, "newer"))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ResetPasswordToken)
	assert.Equal(t, "Annie", got.Name)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
}

func TestUserRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ann := newUser("ann@x.com")
	bob := newUser("bob@x.com")
	require.NoError(t, repo.Create(ctx, ann))
	require.NoError(t, repo.Create(ctx, bob))

	name := "Annie"
	addrs := []entity.Address{{Street: "1 Main", City: "Springfield", PostalCode: "12345"}}
	updated, err := repo.Update(ctx, ann.ID, entity.ProfileChanges{Name: &name, Addresses: &addrs})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
	assert.Equal(t, addrs, updated.Addresses)
	assert.Equal(t, ann.PasswordHash, updated.PasswordHash)

	taken := "bob@x.com"
	_, err = repo.Update(ctx, ann.ID, entity.ProfileChanges{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = repo.Update(ctx, primitive.NewObjectID(), entity.ProfileChanges{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_SetResetTokenUnknownUser(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.SetResetToken(context.Background(), primitive.NewObjectID(), "abc123", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

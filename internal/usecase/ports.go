package usecase

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/events"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/security"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository is the credential store. Lookups return repository.ErrUserNotFound;
// writes that collide on email return repository.ErrDuplicateKey.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	// FindByResetToken matches the stored token exactly and requires its expiry to be after now.
	FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	// SetResetToken writes only the two reset fields.
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error
	// ClearResetToken unsets the reset fields if token is still the stored one.
	ClearResetToken(ctx context.Context, id primitive.ObjectID, token string) error
	// ConsumeResetToken atomically sets the password hash and unsets the reset fields of the user
	// holding token with an expiry after now.
	ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error)
	Update(ctx context.Context, id primitive.ObjectID, changes entity.ProfileChanges) (*entity.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

type SessionTokens interface {
	Issue(ctx context.Context, userID, role string) (string, error)
	Verify(ctx context.Context, token string) (security.Claims, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// ProfileCache returns cache.ErrMiss from Get when nothing is stored.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*entity.Profile, error)
	Set(ctx context.Context, profile *entity.Profile) error
	Delete(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, evt events.UserRegistered) error
	PublishPasswordReset(ctx context.Context, evt events.PasswordReset) error
}

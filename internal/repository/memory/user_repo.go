package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepo is a process-local user store with the same contract as the Mongo repository.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[primitive.ObjectID]*entity.User
	byEmail map[string]primitive.ObjectID
	now     func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[primitive.ObjectID]*entity.User),
		byEmail: make(map[string]primitive.ObjectID),
		now:     time.Now,
	}
}

func clone(u *entity.User) *entity.User {
	c := *u
	if u.ResetPasswordToken != nil {
		tok := *u.ResetPasswordToken
		c.ResetPasswordToken = &tok
	}
	if u.ResetPasswordExpires != nil {
		exp := *u.ResetPasswordExpires
		c.ResetPasswordExpires = &exp
	}
	c.Addresses = append([]entity.Address{}, u.Addresses...)
	c.Wishlist = append([]primitive.ObjectID{}, u.Wishlist...)
	return &c
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepo) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.ResetPasswordToken == nil || u.ResetPasswordExpires == nil {
			continue
		}
		if *u.ResetPasswordToken == token && u.ResetPasswordExpires.After(now) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[u.Email]; exists {
		return repository.ErrDuplicateKey
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := r.now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	r.byID[u.ID] = clone(u)
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.SetResetToken(token, expires)
	u.UpdatedAt = r.now().UTC()
	return nil
}

// ClearResetToken is a no-op unless the stored token is still token.
func (r *UserRepo) ClearResetToken(ctx context.Context, id primitive.ObjectID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok || u.ResetPasswordToken == nil || *u.ResetPasswordToken != token {
		return nil
	}
	u.ClearResetToken()
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepo) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.ResetPasswordToken == nil || u.ResetPasswordExpires == nil {
			continue
		}
		if *u.ResetPasswordToken == token && u.ResetPasswordExpires.After(now) {
			u.PasswordHash = passwordHash
			u.ClearResetToken()
			u.UpdatedAt = r.now().UTC()
			return clone(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepo) Update(ctx context.Context, id primitive.ObjectID, changes entity.ProfileChanges) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if changes.Email != nil {
		if owner, taken := r.byEmail[*changes.Email]; taken && owner != id {
			return nil, repository.ErrDuplicateKey
		}
	}

	next := clone(current)
	changes.Apply(next)
	next.UpdatedAt = r.now().UTC()

	delete(r.byEmail, current.Email)
	r.byID[id] = next
	r.byEmail[next.Email] = id
	return clone(next), nil
}

// Len returns the number of stored users.
func (r *UserRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/cache"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/events"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/repository"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/security"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("account-service/usecase")

const resetEmailSubject = "Password Reset Request"

// dummyPassword is hashed once and compared against on unknown-email logins.
const dummyPassword = "account-service-timing-equalizer"

// Deps are the collaborators of UserUsecase. Cache, Events, Clock and Metrics are optional.
type Deps struct {
	Repo    UserRepository
	Hasher  PasswordHasher
	Tokens  SessionTokens
	Resets  *security.ResetTokenIssuer
	Mailer  Mailer
	Cache   ProfileCache
	Events  EventPublisher
	Clock   security.Clock
	Metrics *metrics.MetricsManager
	Logger  *logger.Logger
}

// Config holds the use case settings that do not change at runtime.
type Config struct {
	// ResetURLBase is prefixed to the raw reset token to build the emailed link.
	ResetURLBase string
}

// UserUsecase implements registration, login, password reset and profile management.
type UserUsecase struct {
	repo    UserRepository
	hasher  PasswordHasher
	tokens  SessionTokens
	resets  *security.ResetTokenIssuer
	mailer  Mailer
	cache   ProfileCache
	events  EventPublisher
	clock   security.Clock
	metrics *metrics.MetricsManager
	logger  *logger.Logger
	cfg     Config

	dummyHash string
}

func NewUserUsecase(deps Deps, cfg Config) *UserUsecase {
	if deps.Hasher == nil {
		deps.Hasher = security.NewBcryptHasher(security.DefaultBcryptCost)
	}
	if deps.Resets == nil {
		deps.Resets = security.NewResetTokenIssuer(nil)
	}
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.Clock == nil {
		deps.Clock = security.SystemClock
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	uc := &UserUsecase{
		repo:    deps.Repo,
		hasher:  deps.Hasher,
		tokens:  deps.Tokens,
		resets:  deps.Resets,
		mailer:  deps.Mailer,
		cache:   deps.Cache,
		events:  deps.Events,
		clock:   deps.Clock,
		metrics: deps.Metrics,
		logger:  deps.Logger.Named("UserUsecase"),
		cfg:     cfg,
	}
	uc.dummyHash = uc.prepareDummyHash()
	return uc
}

// RegisterInput is an already validated registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  *entity.Address
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token  string      `json:"token"`
	UserID string      `json:"userId"`
	Role   entity.Role `json:"role"`
}

// EmailTaken reports whether an account already uses email.
func (uc *UserUsecase) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := uc.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrUserNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check email: %w", err)
	}
}

// Register stores a new user with role user and returns its public summary.
func (uc *UserUsecase) Register(ctx context.Context, in RegisterInput) (*entity.Summary, error) {
	ctx, span := tracer.Start(ctx, "UserUsecase.Register")
	defer span.End()

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		span.SetStatus(codes.Error, "hash failed")
		return nil, err
	}

	user := &entity.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		IsVerified:   false,
		Addresses:    []entity.Address{},
		Wishlist:     []primitive.ObjectID{},
	}
	if in.Address != nil {
		user.Addresses = append(user.Addresses, *in.Address)
	}

	if err := uc.repo.Create(ctx, user); err != nil {
		uc.logger.Error("Failed to store new user", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, fmt.Errorf("create user: %w", err)
	}
	uc.metrics.IncRegistration()
	span.SetAttributes(attribute.String("user.id", user.ID.Hex()))
	uc.logger.Info("User registered", zap.String("userID", user.ID.Hex()))

	evt := events.UserRegistered{UserID: user.ID.Hex(), Email: user.Email, Name: user.Name, OccurredAt: user.CreatedAt}
	if err := uc.events.PublishUserRegistered(ctx, evt); err != nil {
		uc.logger.Warn("Failed to publish user.registered event", zap.String("userID", user.ID.Hex()), zap.Error(err))
	}
	return user.Summary(), nil
}

// prepareDummyHash runs at construction so that no login pays for building it.
func (uc *UserUsecase) prepareDummyHash() string {
	hash, err := uc.hasher.Hash(dummyPassword)
	if err != nil {
		uc.logger.Error("Failed to prepare dummy hash", zap.Error(err))
		return ""
	}
	return hash
}

// Login verifies credentials and issues a session token. An unknown email and a wrong password
// both return ErrInvalidCredentials.
func (uc *UserUsecase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := tracer.Start(ctx, "UserUsecase.Login")
	defer span.End()

	user, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			uc.metrics.IncLogin(metrics.ResultError)
			span.RecordError(err)
			return nil, fmt.Errorf("find user: %w", err)
		}
		_, _ = uc.hasher.Verify(password, uc.dummyHash)
		uc.metrics.IncLogin(metrics.ResultRejected)
		return nil, ErrInvalidCredentials
	}

	ok, err := uc.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		uc.logger.Error("Stored password hash is unreadable", zap.String("userID", user.ID.Hex()), zap.Error(err))
		uc.metrics.IncLogin(metrics.ResultError)
		span.RecordError(err)
		return nil, err
	}
	if !ok {
		uc.metrics.IncLogin(metrics.ResultRejected)
		return nil, ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(ctx, user.ID.Hex(), string(user.Role))
	if err != nil {
		uc.logger.Error("Failed to issue session token", zap.String("userID", user.ID.Hex()), zap.Error(err))
		uc.metrics.IncLogin(metrics.ResultError)
		span.RecordError(err)
		return nil, err
	}
	uc.metrics.IncLogin(metrics.ResultSuccess)
	uc.logger.Info("User logged in", zap.String("userID", user.ID.Hex()))
	return &LoginResult{Token: token, UserID: user.ID.Hex(), Role: user.Role}, nil
}

func (uc *UserUsecase) resetEmailBody(url string) string {
	var b strings.Builder
	b.WriteString("You are receiving this email because a password reset was requested for your account.\n\n")
	b.WriteString("Open the following link to choose a new password:\n\n")
	b.WriteString(url)
	b.WriteString("\n\nThis link is valid for 1 hour. If you did not request a reset, ignore this email and your password will stay unchanged.\n")
	return b.String()
}

// ForgotPassword issues a reset token and emails the reset link. It returns nil for an unknown
// email so that callers cannot tell whether an account exists. If the email cannot be sent the
// token is cleared again and a *DispatchError is returned.
func (uc *UserUsecase) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := tracer.Start(ctx, "UserUsecase.ForgotPassword")
	defer span.End()

	user, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			uc.metrics.IncResetRequest(metrics.ResultRejected)
			return nil
		}
		uc.metrics.IncResetRequest(metrics.ResultError)
		span.RecordError(err)
		return fmt.Errorf("find user: %w", err)
	}

	token, err := uc.resets.Issue()
	if err != nil {
		uc.metrics.IncResetRequest(metrics.ResultError)
		span.RecordError(err)
		return err
	}
	if err := uc.repo.SetResetToken(ctx, user.ID, token, uc.resets.ExpiryFrom(uc.clock.Now())); err != nil {
		uc.metrics.IncResetRequest(metrics.ResultError)
		span.RecordError(err)
		return fmt.Errorf("store reset token: %w", err)
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: resetEmailSubject,
		Body:    uc.resetEmailBody(uc.cfg.ResetURLBase + token),
	}
	if err := uc.mailer.Send(ctx, msg); err != nil {
		uc.logger.Error("Failed to send password reset email", zap.String("userID", user.ID.Hex()), zap.Error(err))
		if cleanupErr := uc.repo.ClearResetToken(context.WithoutCancel(ctx), user.ID, token); cleanupErr != nil {
			uc.logger.Warn("Failed to clear reset token after dispatch failure", zap.String("userID", user.ID.Hex()), zap.Error(cleanupErr))
		}
		uc.metrics.IncResetRequest(metrics.ResultError)
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return &DispatchError{Err: err}
	}

	uc.metrics.IncResetRequest(metrics.ResultSuccess)
	uc.logger.Info("Password reset email sent", zap.String("userID", user.ID.Hex()))
	return nil
}

// ResetPassword replaces the password of the user holding an unexpired token and clears the token
// in the same atomic write, so each token changes the password at most once. No session token is issued.
func (uc *UserUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	ctx, span := tracer.Start(ctx, "UserUsecase.ResetPassword")
	defer span.End()

	if token == "" {
		uc.metrics.IncReset(metrics.ResultRejected)
		return ErrInvalidOrExpiredToken
	}

	now := uc.clock.Now()
	user, err := uc.repo.FindByResetToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			uc.metrics.IncReset(metrics.ResultRejected)
			return ErrInvalidOrExpiredToken
		}
		uc.metrics.IncReset(metrics.ResultError)
		span.RecordError(err)
		return fmt.Errorf("find reset token: %w", err)
	}
	if !uc.resets.Validate(token, user.ResetPasswordToken, user.ResetPasswordExpires, now) {
		uc.metrics.IncReset(metrics.ResultRejected)
		return ErrInvalidOrExpiredToken
	}

	hash, err := uc.hasher.Hash(newPassword)
	if err != nil {
		uc.metrics.IncReset(metrics.ResultError)
		return err
	}
	// The token is matched again inside the write, so a concurrent submit of the same token loses here.
	user, err = uc.repo.ConsumeResetToken(ctx, token, now, hash)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			uc.metrics.IncReset(metrics.ResultRejected)
			return ErrInvalidOrExpiredToken
		}
		uc.metrics.IncReset(metrics.ResultError)
		span.RecordError(err)
		return fmt.Errorf("store new password: %w", err)
	}
	uc.metrics.IncReset(metrics.ResultSuccess)
	uc.logger.Info("Password reset", zap.String("userID", user.ID.Hex()))

	uc.invalidate(ctx, user.ID.Hex())
	if err := uc.events.PublishPasswordReset(ctx, events.PasswordReset{UserID: user.ID.Hex(), OccurredAt: now}); err != nil {
		uc.logger.Warn("Failed to publish user.password_reset event", zap.String("userID", user.ID.Hex()), zap.Error(err))
	}
	return nil
}

func (uc *UserUsecase) invalidate(ctx context.Context, userID string) {
	if err := uc.cache.Delete(ctx, userID); err != nil {
		uc.logger.Warn("Failed to invalidate cached profile", zap.String("userID", userID), zap.Error(err))
	}
}

// GetProfile returns the outward view of the user, reading through the profile cache.
func (uc *UserUsecase) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	ctx, span := tracer.Start(ctx, "UserUsecase.GetProfile")
	defer span.End()

	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	cached, err := uc.cache.Get(ctx, userID)
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		uc.logger.Warn("Profile cache read failed, falling back to store", zap.String("userID", userID), zap.Error(err))
	}

	user, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("find user: %w", err)
	}

	profile := user.Profile()
	if err := uc.cache.Set(ctx, profile); err != nil {
		uc.logger.Warn("Failed to cache profile", zap.String("userID", userID), zap.Error(err))
	}
	return profile, nil
}

// UpdateProfile applies the allowed profile fields. Any denylisted key rejects the whole request
// with ErrForbiddenFieldUpdate before the store is touched. Unknown keys are ignored.
func (uc *UserUsecase) UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*entity.Profile, error) {
	ctx, span := tracer.Start(ctx, "UserUsecase.UpdateProfile")
	defer span.End()

	if key, found := containsForbiddenKey(fields); found {
		uc.logger.Warn("Rejected profile update with forbidden field", zap.String("userID", userID), zap.String("field", key))
		return nil, ErrForbiddenFieldUpdate
	}

	changes, err := parseProfileChanges(fields)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if changes.Empty() {
		return uc.GetProfile(ctx, userID)
	}

	user, err := uc.repo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	uc.invalidate(ctx, userID)
	uc.logger.Info("Profile updated", zap.String("userID", userID))
	return user.Profile(), nil
}

// Authenticate verifies a session token and resolves it to the current user.
// Token failures are returned as the security package's errors; a vanished user as ErrUserNotFound.
func (uc *UserUsecase) Authenticate(ctx context.Context, token string) (*entity.Profile, error) {
	claims, err := uc.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return uc.GetProfile(ctx, claims.UserID)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const usersCollection = "users"

type mongoAddress struct {
	Street     string `bson:"street,omitempty"`
	City       string `bson:"city,omitempty"`
	PostalCode string `bson:"postalCode,omitempty"`
}

type mongoUser struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty"`
	Name                 string               `bson:"name"`
	Email                string               `bson:"email"`
	Phone                string               `bson:"phone,omitempty"`
	Password             string               `bson:"password"`
	Role                 string               `bson:"role"`
	IsVerified           bool                 `bson:"isVerified"`
	ResetPasswordToken   *string              `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time           `bson:"resetPasswordExpires,omitempty"`
	Addresses            []mongoAddress       `bson:"addresses"`
	Wishlist             []primitive.ObjectID `bson:"wishlist"`
	CreatedAt            time.Time            `bson:"createdAt"`
	UpdatedAt            time.Time            `bson:"updatedAt"`
}

func toMongoAddresses(in []entity.Address) []mongoAddress {
	out := make([]mongoAddress, 0, len(in))
	for _, a := range in {
		out = append(out, mongoAddress{Street: a.Street, City: a.City, PostalCode: a.PostalCode})
	}
	return out
}

func (m *mongoUser) toEntity() *entity.User {
	addresses := make([]entity.Address, 0, len(m.Addresses))
	for _, a := range m.Addresses {
		addresses = append(addresses, entity.Address{Street: a.Street, City: a.City, PostalCode: a.PostalCode})
	}
	wishlist := m.Wishlist
	if wishlist == nil {
		wishlist = []primitive.ObjectID{}
	}
	return &entity.User{
		ID:                   m.ID,
		Name:                 m.Name,
		Email:                m.Email,
		Phone:                m.Phone,
		PasswordHash:         m.Password,
		Role:                 entity.Role(m.Role),
		IsVerified:           m.IsVerified,
		ResetPasswordToken:   m.ResetPasswordToken,
		ResetPasswordExpires: m.ResetPasswordExpires,
		Addresses:            addresses,
		Wishlist:             wishlist,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func fromEntity(e *entity.User) *mongoUser {
	wishlist := e.Wishlist
	if wishlist == nil {
		wishlist = []primitive.ObjectID{}
	}
	return &mongoUser{
		ID:                   e.ID,
		Name:                 e.Name,
		Email:                e.Email,
		Phone:                e.Phone,
		Password:             e.PasswordHash,
		Role:                 string(e.Role),
		IsVerified:           e.IsVerified,
		ResetPasswordToken:   e.ResetPasswordToken,
		ResetPasswordExpires: e.ResetPasswordExpires,
		Addresses:            toMongoAddresses(e.Addresses),
		Wishlist:             wishlist,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// UserRepository stores users in the MongoDB "users" collection.
type UserRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
	now    func() time.Time
}

// NewUserRepository ensures the unique email index. Index failures are logged, not fatal.
func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	r := &UserRepository{
		coll:   db.Collection(usersCollection),
		logger: log.Named("UserRepository"),
		now:    time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.EnsureIndexes(ctx); err != nil {
		r.logger.Warn("Failed to create indexes for users collection (may already exist)", zap.Error(err))
	} else {
		r.logger.Info("Successfully ensured indexes for users collection")
	}
	return r
}

// EnsureIndexes creates the unique email_1 index and the reset token lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "resetPasswordToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var dbUser mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&dbUser); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return dbUser.toEntity(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		r.logger.Error("Database error fetching user by email", zap.Error(err))
	}
	return user, err
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	user, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		r.logger.Error("Database error fetching user by ID", zap.String("userID", id.Hex()), zap.Error(err))
	}
	return user, err
}

// FindByResetToken returns the user holding token whose expiry is strictly after now.
func (r *UserRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	user, err := r.findOne(ctx, bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gt": now},
	})
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		r.logger.Error("Database error fetching user by reset token", zap.Error(err))
	}
	return user, err
}

// Create inserts user, assigning its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := r.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, fromEntity(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate email during user creation", zap.String("userID", user.ID.Hex()))
			return ErrDuplicateKey
		}
		r.logger.Error("Database error during user creation", zap.Error(err))
		return err
	}
	r.logger.Info("User created", zap.String("userID", user.ID.Hex()))
	return nil
}

// SetResetToken stores token and its expiry on the user, touching no other field.
func (r *UserRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	update := bson.M{"$set": bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": expires,
		"updatedAt":            r.now().UTC(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		r.logger.Error("Database error storing reset token", zap.String("userID", id.Hex()), zap.Error(err))
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearResetToken unsets both reset fields, but only while the stored token is still token.
// A token that was already consumed or replaced is left alone and nil is returned.
func (r *UserRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID, token string) error {
	update := bson.M{
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
		"$set":   bson.M{"updatedAt": r.now().UTC()},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "resetPasswordToken": token}, update); err != nil {
		r.logger.Error("Database error clearing reset token", zap.String("userID", id.Hex()), zap.Error(err))
		return err
	}
	return nil
}

// ConsumeResetToken replaces the password of the user holding an unexpired token and unsets both
// reset fields in one atomic update. Of concurrent callers with the same token only one matches;
// the others get ErrUserNotFound.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error) {
	filter := bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": r.now().UTC()},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpires": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var dbUser mongoUser
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&dbUser); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		r.logger.Error("Database error consuming reset token", zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

// Update overwrites the profile fields present in changes and returns the stored result.
func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, changes entity.ProfileChanges) (*entity.User, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if changes.Name != nil {
		set["name"] = *changes.Name
	}
	if changes.Email != nil {
		set["email"] = *changes.Email
	}
	if changes.Phone != nil {
		set["phone"] = *changes.Phone
	}
	if changes.Addresses != nil {
		set["addresses"] = toMongoAddresses(*changes.Addresses)
	}
	if changes.Wishlist != nil {
		set["wishlist"] = *changes.Wishlist
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var dbUser mongoUser
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&dbUser)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			r.logger.Warn("Duplicate email during profile update", zap.String("userID", id.Hex()))
			return nil, ErrDuplicateKey
		}
		r.logger.Error("Database error updating profile", zap.String("userID", id.Hex()), zap.Error(err))
		return nil, err
	}
	return dbUser.toEntity(), nil
}

package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the authorization role carried in session tokens.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSeller:
		return true
	}
	return false
}

// Address is a postal address attached to a user.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// User is the stored account record. Credential and reset fields never leave the service.
type User struct {
	ID                   primitive.ObjectID   `json:"id"`
	Name                 string               `json:"name"`
	Email                string               `json:"email"`
	Phone                string               `json:"phone"`
	PasswordHash         string               `json:"-"`
	Role                 Role                 `json:"role"`
	IsVerified           bool                 `json:"isVerified"`
	ResetPasswordToken   *string              `json:"-"`
	ResetPasswordExpires *time.Time           `json:"-"`
	Addresses            []Address            `json:"addresses"`
	Wishlist             []primitive.ObjectID `json:"wishlist"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

// SetResetToken stores a reset token together with its expiry.
func (u *User) SetResetToken(token string, expires time.Time) {
	u.ResetPasswordToken = &token
	u.ResetPasswordExpires = &expires
}

// ClearResetToken removes both reset fields.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil
}

// Profile is the outward view of a user.
type Profile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	Addresses  []Address `json:"addresses"`
	Wishlist   []string  `json:"wishlist"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Summary is returned after registration.
type Summary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Profile builds the outward view of u.
func (u *User) Profile() *Profile {
	addresses := make([]Address, len(u.Addresses))
	copy(addresses, u.Addresses)
	wishlist := make([]string, 0, len(u.Wishlist))
	for _, id := range u.Wishlist {
		wishlist = append(wishlist, id.Hex())
	}
	return &Profile{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		Addresses:  addresses,
		Wishlist:   wishlist,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// Summary builds the registration summary of u.
func (u *User) Summary() *Summary {
	return &Summary{ID: u.ID.Hex(), Email: u.Email, Name: u.Name}
}

// ProfileChanges holds the validated subset of profile fields to overwrite. Nil fields are left as is.
type ProfileChanges struct {
	Name      *string
	Email     *string
	Phone     *string
	Addresses *[]Address
	Wishlist  *[]primitive.ObjectID
}

// Empty reports whether no field is set.
func (c ProfileChanges) Empty() bool {
	return c.Name == nil && c.Email == nil && c.Phone == nil && c.Addresses == nil && c.Wishlist == nil
}

// Apply copies the set fields onto u.
func (c ProfileChanges) Apply(u *User) {
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Phone != nil {
		u.Phone = *c.Phone
	}
	if c.Addresses != nil {
		u.Addresses = append([]Address(nil), (*c.Addresses)...)
	}
	if c.Wishlist != nil {
		u.Wishlist = append([]primitive.ObjectID(nil), (*c.Wishlist)...)
	}
}

package usecase

import (
	"strings"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/entity"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// forbiddenProfileKeys may never appear in a profile update, whatever their value.
var forbiddenProfileKeys = []string{"role", "password", "isVerified", "resetPasswordToken", "resetPasswordExpires"}

var fieldValidator = validator.New()

func containsForbiddenKey(fields map[string]any) (string, bool) {
	for _, k := range forbiddenProfileKeys {
		if _, ok := fields[k]; ok {
			return k, true
		}
	}
	return "", false
}

// parseProfileChanges validates the known profile keys and drops everything else.
func parseProfileChanges(fields map[string]any) (entity.ProfileChanges, error) {
	var changes entity.ProfileChanges

	if raw, ok := fields["name"]; ok {
		name, isString := raw.(string)
		name = strings.TrimSpace(name)
		if !isString || name == "" {
			return changes, &FieldValidationError{Field: "name", Message: "Name is required."}
		}
		changes.Name = &name
	}

	if raw, ok := fields["email"]; ok {
		email, isString := raw.(string)
		if !isString || fieldValidator.Var(strings.TrimSpace(email), "required,email") != nil {
			return changes, &FieldValidationError{Field: "email", Message: "Invalid email format."}
		}
		email = entity.NormalizeEmail(email)
		changes.Email = &email
	}

	if raw, ok := fields["phone"]; ok {
		phone, isString := raw.(string)
		if !isString || fieldValidator.Var(phone, "required,number") != nil {
			return changes, &FieldValidationError{Field: "phone", Message: "Invalid phone number format."}
		}
		if len(phone) != 10 {
			return changes, &FieldValidationError{Field: "phone", Message: "Phone number must be 10 digits."}
		}
		changes.Phone = &phone
	}

	if raw, ok := fields["addresses"]; ok {
		addresses, err := parseAddresses(raw)
		if err != nil {
			return changes, err
		}
		changes.Addresses = &addresses
	}

	if raw, ok := fields["wishlist"]; ok {
		wishlist, err := parseWishlist(raw)
		if err != nil {
			return changes, err
		}
		changes.Wishlist = &wishlist
	}

	return changes, nil
}

func parseAddresses(raw any) ([]entity.Address, error) {
	invalid := &FieldValidationError{Field: "addresses", Message: "Addresses must be a list of {street, city, postalCode}."}

	items, ok := raw.([]any)
	if !ok {
		return nil, invalid
	}
	out := make([]entity.Address, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalid
		}
		var a entity.Address
		for key, target := range map[string]*string{"street": &a.Street, "city": &a.City, "postalCode": &a.PostalCode} {
			v, present := obj[key]
			if !present || v == nil {
				continue
			}
			s, isString := v.(string)
			if !isString {
				return nil, invalid
			}
			*target = strings.TrimSpace(s)
		}
		out = append(out, a)
	}
	return out, nil
}

// parseWishlist accepts product ids as hex strings and keeps the first occurrence of each.
func parseWishlist(raw any) ([]primitive.ObjectID, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, &FieldValidationError{Field: "wishlist", Message: "Wishlist must be a list of product ids."}
	}
	seen := make(map[primitive.ObjectID]bool, len(items))
	out := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, &FieldValidationError{Field: "wishlist", Message: "Invalid product id in wishlist."}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

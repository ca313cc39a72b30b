// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents both admins and voters (non-admins).
//
// NOTE:
//   - Password and IsAdmin are hidden fields. Store reads leave them out
//     unless the caller asks for them (login paths), so a decoded User
//     usually has an empty Password and a nil IsAdmin.
//   - YearClass is only meaningful for voters.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NIM       string             `bson:"nim,omitempty" json:"nim,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Password  string             `bson:"password,omitempty" json:"-"`
	IsAdmin   *bool              `bson:"is_admin,omitempty" json:"is_admin,omitempty"`
	YearClass *int               `bson:"year_class,omitempty" json:"year_class,omitempty"`
	Voted     *bool              `bson:"voted,omitempty" json:"voted,omitempty"`
	Version   *int               `bson:"version,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Admin reports whether the user carries the admin flag. A user loaded
// without the hidden is_admin field reports false.
func (u *User) Admin() bool {
	return u != nil && u.IsAdmin != nil && *u.IsAdmin
}

// HasVoted reports the vote flag, treating an absent field as false.
func (u *User) HasVoted() bool {
	return u != nil && u.Voted != nil && *u.Voted
}

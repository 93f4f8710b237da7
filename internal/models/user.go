// Package models contains data structures for the application's domain models.
package models

import "time"

// DefaultDisplayName is used when the identity provider has no name for a user.
const DefaultDisplayName = "User"

// User is the local record of an authenticated identity. Rows are created
// lazily the first time an external identity is seen.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"size:191;uniqueIndex;not null" json:"-"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Email      string    `gorm:"size:320" json:"email,omitempty"`
	ImageURL   string    `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicUserColumns are the user columns exposed next to articles and comments.
var PublicUserColumns = []string{"id", "name", "image_url"}

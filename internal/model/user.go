package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered marketplace user.
type User struct {
	ID           string    `json:"id" gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username" gorm:"size:64;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	PhoneNumber  string    `json:"phoneNumber" gorm:"size:32;not null"`
	FirstName    string    `json:"firstName,omitempty" gorm:"size:100"`
	LastName     string    `json:"lastName,omitempty" gorm:"size:100"`
	ProfileImage *string   `json:"profileImage" gorm:"size:1024"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// OwnerSummary is the owner projection embedded in listing responses. The
// detail fields are only filled for single listing views.
type OwnerSummary struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	PhoneNumber  string  `json:"phoneNumber"`
	FirstName    string  `json:"firstName,omitempty"`
	LastName     string  `json:"lastName,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// Summary projects the user for listing cards.
func (u *User) Summary() *OwnerSummary {
	return &OwnerSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
	}
}

// Detail projects the user for the listing detail page.
func (u *User) Detail() *OwnerSummary {
	s := u.Summary()
	s.FirstName = u.FirstName
	s.LastName = u.LastName
	s.ProfileImage = u.ProfileImage
	return s
}

// UserProfile is the public projection used by profile pages.
type UserProfile struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	PhoneNumber  string  `json:"phoneNumber"`
	FirstName    string  `json:"firstName,omitempty"`
	LastName     string  `json:"lastName,omitempty"`
	ProfileImage *string `json:"profileImage"`
}

// Profile returns the profile projection of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ProfileImage: u.ProfileImage,
	}
}

// Profile joins a user with every listing they own.
type Profile struct {
	User     UserProfile `json:"user"`
	Listings []Listing   `json:"listings"`
}

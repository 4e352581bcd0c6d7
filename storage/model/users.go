package model

import (
	"time"
)

// User is an operator of the admin API. What a user may do is decided by the
// capabilities granted through UserPermission rows.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Username is unique identifier for login
	Username string `gorm:"uniqueIndex" json:"username"`
	// PasswordHash stores a PHC-formatted argon2id hash of the user's password
	PasswordHash string `json:"-"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email,omitempty"`
	// Disabled blocks login without deleting the user
	Disabled bool `json:"disabled"`

	Permissions []UserPermission `gorm:"foreignKey:UserID" json:"permissions,omitempty"`
}

// Name returns the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// UserPermission grants one Capability to one User.
type UserPermission struct {
	UserID     uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Capability Capability `gorm:"primaryKey;size:64" json:"capability"`
}

// UserUpdate holds the optional changes for UsersStore.Update; nil fields
// are left as they are.
type UserUpdate struct {
	DisplayName *string
	Email       *string
	Password    *string
	Disabled    *bool
}

// UsersStore abstracts CRUD, permission and authentication helpers for users.
type UsersStore interface {
	// Count returns the number of users present in the store
	Count() (int64, error)
	// List returns all users (without password hashes)
	List() ([]User, error)
	// Get returns a user by username
	Get(username string) (*User, error)
	// GetByID returns a user by id
	GetByID(id uint) (*User, error)
	// Missing returns the ids out of ids that do not belong to a user
	Missing(ids []uint) ([]uint, error)
	// Create creates a user; the implementation must hash the password
	Create(username, password, displayName, email string) (*User, error)
	// Update applies the non-nil fields of the UserUpdate
	Update(username string, update UserUpdate) (*User, error)
	// Delete deletes a user and its permissions by username
	Delete(username string) error
	// Authenticate checks a username/password combo and returns the user
	Authenticate(username, password string) (*User, error)
	// Permissions returns the capabilities granted to the user
	Permissions(userID uint) (CapabilitySet, error)
	// SetPermissions replaces the capabilities granted to the user
	SetPermissions(username string, caps []Capability) (*User, error)
	// Grant adds capabilities to the user
	Grant(username string, caps ...Capability) (*User, error)
	// Revoke removes capabilities from the user
	Revoke(username string, caps ...Capability) (*User, error)
}

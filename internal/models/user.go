package models

import "time"

type Role string

const (
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
	// RoleContact marks people who only ever reach us through an external channel
	RoleContact Role = "user"
)

type UserSource string

const (
	SourceLocal    UserSource = "local"
	SourceWhatsApp UserSource = "whatsapp"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name string `gorm:"not null" json:"name"`
	// Contact is the email of a registered agent or the phone-style id of an external contact
	Contact  string     `gorm:"uniqueIndex;not null" json:"contact"`
	Password string     `gorm:"not null" json:"-"`
	Role     Role       `gorm:"type:text;default:'agent'" json:"role"`
	Source   UserSource `gorm:"type:text;default:'local'" json:"source"`
}

func (User) TableName() string {
	return "users"
}

// UserProfile is the subset of a user shown next to a message or a conversation
type UserProfile struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Role    Role   `json:"role,omitempty"`
	Missing bool   `json:"missing,omitempty"`
}

const UnknownUserName = "Unknown user"

func (u User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Contact: u.Contact, Role: u.Role}
}

// PlaceholderProfile stands in for a user that is no longer in the directory
func PlaceholderProfile(id uint) UserProfile {
	return UserProfile{ID: id, Name: UnknownUserName, Missing: true}
}

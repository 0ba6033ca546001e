package models

import "time"

// User represents a registered chat account
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}

// Identity returns the verified identity carried by this account.
func (u User) Identity() Identity {
	return Identity{
		ID:          u.ID,
		AccountName: u.Email,
		DisplayName: u.Name,
	}
}

package models

import "time"

// User represents a registered account. The password hash is stored but
// never serialized; avatar_path references a file in the uploads directory.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"`
	Name         *string   `json:"name" gorm:"type:varchar(255)"`
	AvatarPath   *string   `json:"avatar_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

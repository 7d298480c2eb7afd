package model

import "time"

// User is a registered account. Username is the primary key and never
// changes; PasswordHash never leaves the store layer.
type User struct {
	Username     string     `gorm:"type:varchar(64);primaryKey"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	FirstName    string     `gorm:"type:varchar(64);not null"`
	LastName     string     `gorm:"type:varchar(64);not null"`
	Phone        string     `gorm:"type:varchar(32);not null"`
	JoinedAt     time.Time  `gorm:"precision:6;not null"`
	LastLoginAt  *time.Time `gorm:"precision:6"`
}

// TableName keeps the singular table name.
func (User) TableName() string { return "user" }

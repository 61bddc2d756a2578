package profile

import "time"

// Module is a business workflow area (ticketing, hotel, attestation, ...).
type Module struct {
	ID        int64     `gorm:"primaryKey"`
	Code      string    `gorm:"column:code;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Module) TableName() string { return "modules" }

// Profile is an access-control grouping binding users to modules.
type Profile struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Modules []ProfileModule `gorm:"foreignKey:ProfileID"`
	Users   []ProfileUser   `gorm:"foreignKey:ProfileID"`
}

func (Profile) TableName() string { return "profiles" }

type ProfileModule struct {
	ProfileID int64  `gorm:"column:profile_id;primaryKey"`
	ModuleID  int64  `gorm:"column:module_id;primaryKey"`
	Module    Module `gorm:"foreignKey:ModuleID"`
}

func (ProfileModule) TableName() string { return "profile_modules" }

// ProfileUser rows keep insertion order through Position so the roster's
// enumeration order is stable across reloads.
type ProfileUser struct {
	ProfileID int64 `gorm:"column:profile_id;primaryKey"`
	UserID    int64 `gorm:"column:user_id;primaryKey"`
	Position  int   `gorm:"column:position;not null;default:0"`
}

func (ProfileUser) TableName() string { return "profile_users" }

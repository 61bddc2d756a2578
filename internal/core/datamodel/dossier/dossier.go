package dossier

import "time"

type BillingClient struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (BillingClient) TableName() string { return "billing_clients" }

// Dossier is a case file aggregating module engagements for a client.
type Dossier struct {
	ID              int64     `gorm:"primaryKey"`
	Reference       string    `gorm:"column:reference;uniqueIndex;not null"`
	BillingClientID int64     `gorm:"column:billing_client_id;not null;index"`
	CreatedBy       *int64    `gorm:"column:created_by"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Assignments []Assignment `gorm:"foreignKey:DossierID"`
}

func (Dossier) TableName() string { return "dossiers" }

// Assignment is one row of the append-only collaborator history. At most one
// row per (dossier, module) is active; replaced rows are deactivated, never
// deleted.
type Assignment struct {
	ID            int64      `gorm:"primaryKey"`
	DossierID     int64      `gorm:"column:dossier_id;not null;index:idx_assignment_dossier_module"`
	ModuleID      int64      `gorm:"column:module_id;not null;index:idx_assignment_dossier_module"`
	UserID        int64      `gorm:"column:user_id;not null;index"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	AssignedBy    *int64     `gorm:"column:assigned_by"`
	AssignedAt    time.Time  `gorm:"column:assigned_at;not null"`
	DeactivatedAt *time.Time `gorm:"column:deactivated_at"`
}

func (Assignment) TableName() string { return "dossier_assignments" }

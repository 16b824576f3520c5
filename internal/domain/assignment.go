package domain

import (
	"time"

	"github.com/google/uuid"
)

// Form groups the metric definitions of one disclosure template.
type Form struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Form) TableName() string { return "form" }

// Layer is an organizational unit (group, subsidiary, branch) that owns
// submitted data.
type Layer struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string     `gorm:"column:name;not null" json:"name"`
	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Layer     `gorm:"foreignKey:ParentID;references:ID" json:"parent,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Layer) TableName() string { return "layer" }

// Assignment binds a template form to a reporting entity for one reporting
// window. Aggregation windows are always clipped to [PeriodStart, PeriodEnd].
type Assignment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FormID     uuid.UUID `gorm:"type:uuid;not null;index" json:"form_id"`
	Form       *Form     `gorm:"constraint:OnDelete:CASCADE;foreignKey:FormID;references:ID" json:"form,omitempty"`
	EntityName string    `gorm:"column:entity_name;not null" json:"entity_name"`

	PeriodStart time.Time `gorm:"column:period_start;not null" json:"period_start"`
	PeriodEnd   time.Time `gorm:"column:period_end;not null" json:"period_end"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Assignment) TableName() string { return "assignment" }

// ContainsPeriod reports whether a period date falls inside the assignment's
// reporting window.
func (a *Assignment) ContainsPeriod(t time.Time) bool {
	return InWindow(t, a.PeriodStart, a.PeriodEnd)
}

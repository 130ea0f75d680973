package models

import (
	"time"

	"gorm.io/datatypes"
)

// SiteStateID is the primary key of the singleton content document row.
const SiteStateID uint = 1

// SiteState is the persisted singleton holding site sections and the product
// catalog. Sections and products are always written together.
type SiteState struct {
	ID        uint           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Sections  datatypes.JSON `gorm:"not null" json:"sections"`
	Products  datatypes.JSON `gorm:"not null" json:"products"`
	Revision  int            `gorm:"not null;default:0" json:"revision"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:false" json:"updated_at"`
	UpdatedBy *uint          `json:"updated_by"`
}

// TableName specifies the table name for GORM.
func (SiteState) TableName() string {
	return "site_states"
}

// SectionNames are the fixed top-level keys of the sections tree.
var SectionNames = []string{"hero", "about", "galleries", "contact", "footer"}

// IsSectionName reports whether name is a known section key.
func IsSectionName(name string) bool {
	for _, n := range SectionNames {
		if n == name {
			return true
		}
	}
	return false
}

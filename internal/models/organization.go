package models

import "gorm.io/datatypes"

type Organization struct {
	BaseModel

	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Description string         `json:"description"`
	Settings    datatypes.JSON `json:"settings"`

	Customers []Customer `gorm:"foreignKey:OrganizationID" json:"customers,omitempty"`
}

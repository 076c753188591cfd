package models

import (
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project is the subset of a dashboard project the dispatch core needs.
// UpdatedAt (from gorm.Model) is what the reminder engine compares
// against the last reporting cycle boundary.
type Project struct {
	gorm.Model
	Title       string        `json:"title" gorm:"not null"`
	Plant       string        `json:"plant" gorm:"index"`
	Disciplines []string      `json:"disciplines" gorm:"serializer:json"`
	Status      ProjectStatus `json:"status" gorm:"default:active"`
	Description string        `json:"description"`
}

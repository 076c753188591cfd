package models

import (
	"gorm.io/gorm"
)

// Recipient is one report subscriber. Plant/discipline tags scope which
// content the personalized report link filters to; PM recipients are
// scoped to their project IDs instead.
type Recipient struct {
	gorm.Model
	Email            string   `json:"email" gorm:"uniqueIndex;not null"`
	Plants           []string `json:"plants" gorm:"serializer:json"`
	Disciplines      []string `json:"disciplines" gorm:"serializer:json"`
	IsPM             bool     `json:"is_pm"`
	IsCapitalManager bool     `json:"is_capital_manager"`
	ProjectIDs       []int    `json:"project_ids" gorm:"serializer:json"`
}

// IsGlobal reports whether the recipient has no plant or discipline
// scope and therefore receives the unfiltered report.
func (r *Recipient) IsGlobal() bool {
	return len(r.Plants) == 0 && len(r.Disciplines) == 0
}

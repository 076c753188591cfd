package recipient

import (
	"github.com/reportdash/internal/models"
)

// UpsertInput is the wire shape of a recipient upsert. The role flags
// are pointers so an omitted flag preserves the stored value while an
// explicit one overwrites it.
type UpsertInput struct {
	Email            string   `json:"email" binding:"required"`
	Plants           []string `json:"plants"`
	Disciplines      []string `json:"disciplines"`
	ProjectIDs       []int    `json:"project_ids"`
	IsPM             *bool    `json:"is_pm"`
	IsCapitalManager *bool    `json:"is_capital_manager"`
}

// Merge folds an incoming upsert into an existing recipient: set-union
// on plants, disciplines and project IDs, role flags overwritten only
// when the input provides them. Merging the same input twice is a no-op
// beyond the first merge.
func Merge(existing models.Recipient, in UpsertInput) models.Recipient {
	existing.Plants = unionStrings(existing.Plants, in.Plants)
	existing.Disciplines = unionStrings(existing.Disciplines, in.Disciplines)
	existing.ProjectIDs = unionInts(existing.ProjectIDs, in.ProjectIDs)
	if in.IsPM != nil {
		existing.IsPM = *in.IsPM
	}
	if in.IsCapitalManager != nil {
		existing.IsCapitalManager = *in.IsCapitalManager
	}
	return existing
}

func unionStrings(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, v := range existing {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range incoming {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func unionInts(existing, incoming []int) []int {
	out := make([]int, 0, len(existing)+len(incoming))
	seen := make(map[int]bool, len(existing)+len(incoming))
	for _, v := range existing {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range incoming {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

package recipient

import (
	"github.com/reportdash/internal/models"
)

// Matches reports whether a project passes the given plant/discipline
// filters. No filters match everything; a single filter matches on that
// filter alone; when both are supplied the rule is an inclusive OR, not
// an AND — a plant-scoped recipient sees every report for that plant
// regardless of discipline overlap, and vice versa.
func Matches(p *models.Project, plant string, disciplines []string) bool {
	plantSet := plant != ""
	discSet := len(disciplines) > 0

	if !plantSet && !discSet {
		return true
	}

	plantOK := plantSet && p.Plant == plant
	discOK := discSet && overlaps(p.Disciplines, disciplines)

	switch {
	case plantSet && discSet:
		return plantOK || discOK
	case plantSet:
		return plantOK
	default:
		return discOK
	}
}

// MatchesRecipient applies the same broadening rule against a
// recipient's full plant and discipline sets.
func MatchesRecipient(p *models.Project, r *models.Recipient) bool {
	plantSet := len(r.Plants) > 0
	discSet := len(r.Disciplines) > 0

	if !plantSet && !discSet {
		return true
	}

	plantOK := plantSet && contains(r.Plants, p.Plant)
	discOK := discSet && overlaps(p.Disciplines, r.Disciplines)

	switch {
	case plantSet && discSet:
		return plantOK || discOK
	case plantSet:
		return plantOK
	default:
		return discOK
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func overlaps(a, b []string) bool {
	for _, v := range a {
		if contains(b, v) {
			return true
		}
	}
	return false
}

// Package recommend implements the ranking engine: candidate filtering,
// click-feedback re-ranking, similarity expansion and first-use ingestion.
package recommend

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/tubefeed/video-recommender-go/internal/models"
)

// minutesToken matches the minutes component of an ISO-8601-like
// duration, e.g. the "13M" in "PT2H13M4S".
var minutesToken = regexp.MustCompile(`(\d+)M`)

// DurationMinutes extracts the whole-minutes component of a duration
// string. A missing minutes token means zero minutes, so "PT58S" and an
// empty string both parse to 0.
func DurationMinutes(durationISO string) int {
	match := minutesToken.FindStringSubmatch(durationISO)
	if match == nil {
		return 0
	}
	minutes, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return minutes
}

// FilterCandidates returns the candidates surviving the user's preference
// filter. A candidate survives iff its duration in whole minutes is not
// less than prefs.VidLength and, when its category maps to a known name,
// that name is allowed. Unknown categories are never excluded by the
// category rule. The input is not mutated.
func FilterCandidates(candidates []models.Candidate, prefs models.Preferences) []models.Candidate {
	surviving := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if DurationMinutes(c.Video.DurationISO) < prefs.VidLength {
			continue
		}
		if name, known := models.CategoryName(c.Video.CategoryID); known && !prefs.Allows(name) {
			continue
		}
		surviving = append(surviving, c)
	}
	return surviving
}

// RankCandidates sorts candidates by raw score, highest first, dropping
// entries without an active score. Expired entries are excluded from
// ranking, not ranked at zero. Ties keep their input order.
func RankCandidates(candidates []models.Candidate) []models.Candidate {
	ranked := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Engagement != nil && c.Engagement.Active() {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Engagement.RawScore > *ranked[j].Engagement.RawScore
	})
	return ranked
}

package dashboard

import (
	"strings"

	"CreditScore/internal/domain/models"
)

// Filter returns the records matching every set criterion. Empty score or
// month lists, a zero age bound and an empty or "all" occupation match
// everything.
func Filter(records []models.CreditRecord, f models.DatasetFilter) []models.CreditRecord {
	scores := toSet(f.CreditScores)
	months := toSet(f.Months)
	occupation := strings.TrimSpace(f.Occupation)
	if strings.EqualFold(occupation, "all") {
		occupation = ""
	}

	out := make([]models.CreditRecord, 0, len(records))
	for _, r := range records {
		if len(scores) > 0 && !scores[r.CreditScore] {
			continue
		}
		if f.AgeMin > 0 && r.Age < float64(f.AgeMin) {
			continue
		}
		if f.AgeMax > 0 && r.Age > float64(f.AgeMax) {
			continue
		}
		if occupation != "" && r.Occupation != occupation {
			continue
		}
		if len(months) > 0 && !months[r.Month] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Page returns the 1-based page of the given size.
func Page(records []models.CreditRecord, page, size int) []models.CreditRecord {
	if page < 1 || size < 1 || len(records) == 0 {
		return []models.CreditRecord{}
	}
	// compare before multiplying so huge pages cannot overflow
	if page-1 > (len(records)-1)/size {
		return []models.CreditRecord{}
	}
	start := (page - 1) * size
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		// query strings may carry comma separated lists
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				set[part] = true
			}
		}
	}
	return set
}

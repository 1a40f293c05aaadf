package actionable

import (
	"fmt"

	"github.com/Kalpithaac/enitity/internal/aggregator"
)

// Thresholds below which a batch gets a note.
const (
	LowFillRate     = 0.35
	HighFailureRate = 0.2
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
}

// Generate turns a batch summary into operator notes: one per field that
// was rarely filled, plus one when many documents failed outright.
func Generate(s aggregator.Summary) []ActionCard {
	var cards []ActionCard
	if s.Documents > 0 && s.FailureRate() >= HighFailureRate {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("%d of %d documents failed (%.0f%%)", s.Failed, s.Documents, s.FailureRate()*100),
			Action:  "Check the error column for unreadable files or gateway errors",
		})
	}
	for _, f := range s.Fields {
		if f.Requested == 0 || f.FillRate >= LowFillRate {
			continue
		}
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Field %q filled in %d of %d documents (%.0f%%)", f.Field, f.Filled, f.Requested, f.FillRate*100),
			Action:  "Rename the field to match the documents' wording or drop it from the manifest",
		})
	}
	if len(cards) == 0 {
		cards = append(cards, ActionCard{
			Insight: "No weak fields detected",
			Action:  "None",
		})
	}
	return cards
}

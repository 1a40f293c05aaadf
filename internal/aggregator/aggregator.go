package aggregator

import "sort"

// Record is one processed document as seen by the aggregator.
type Record struct {
	Fields []string          // requested field names
	Values map[string]string // what the model returned
	Failed bool
}

type FieldStat struct {
	Field     string  `json:"field"`
	Requested int     `json:"requested"`
	Filled    int     `json:"filled"`
	FillRate  float64 `json:"fill_rate"`
}

type Summary struct {
	Documents int         `json:"documents"`
	Failed    int         `json:"failed"`
	Fields    []FieldStat `json:"fields"`
}

// FailureRate is failed documents over all documents, 0 for an empty batch.
func (s Summary) FailureRate() float64 {
	if s.Documents == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Documents)
}

// Aggregate counts, per requested field, how often the model returned a
// non-empty value. Failed documents count as requested but not filled.
// Fields are sorted by name.
func Aggregate(records []Record) Summary {
	requested := map[string]int{}
	filled := map[string]int{}
	out := Summary{Documents: len(records)}

	for _, r := range records {
		if r.Failed {
			out.Failed++
		}
		seen := map[string]bool{}
		for _, f := range r.Fields {
			if seen[f] {
				continue
			}
			seen[f] = true
			requested[f]++
			if !r.Failed && r.Values[f] != "" {
				filled[f]++
			}
		}
	}

	for f, n := range requested {
		rate := 0.0
		if n > 0 {
			rate = float64(filled[f]) / float64(n)
		}
		out.Fields = append(out.Fields, FieldStat{Field: f, Requested: n, Filled: filled[f], FillRate: rate})
	}
	sort.Slice(out.Fields, func(i, j int) bool { return out.Fields[i].Field < out.Fields[j].Field })
	return out
}

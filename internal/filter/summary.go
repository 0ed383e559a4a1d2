package filter

import (
	"sort"

	"github.com/pders01/stackpack/internal/models"
)

// Summary describes how a rule set split an enumerated tree
type Summary struct {
	Total         int            `json:"total"`
	Eligible      int            `json:"eligible"`
	Ignored       int            `json:"ignored"`
	Disallowed    int            `json:"disallowed"`
	EligibleBytes int64          `json:"eligible_bytes"`
	ByExtension   map[string]int `json:"by_extension"`
	TopExtensions []ExtStat      `json:"top_extensions"`
}

// ExtStat is the number of eligible files sharing an extension
type ExtStat struct {
	Ext   string `json:"ext"`
	Count int    `json:"count"`
}

// Summarize counts entries per outcome. An entry that is both ignored and
// disallowed is counted as ignored.
func Summarize(entries []models.Entry, rules Rules) Summary {
	s := Summary{
		Total:       len(entries),
		ByExtension: make(map[string]int),
	}

	for _, e := range entries {
		switch {
		case rules.Ignored(e):
			s.Ignored++
		case !rules.Allowed(e):
			s.Disallowed++
		default:
			s.Eligible++
			s.EligibleBytes += e.Size
			s.ByExtension[e.Ext()]++
		}
	}

	for ext, count := range s.ByExtension {
		s.TopExtensions = append(s.TopExtensions, ExtStat{Ext: ext, Count: count})
	}
	sort.Slice(s.TopExtensions, func(i, j int) bool {
		if s.TopExtensions[i].Count != s.TopExtensions[j].Count {
			return s.TopExtensions[i].Count > s.TopExtensions[j].Count
		}
		return s.TopExtensions[i].Ext < s.TopExtensions[j].Ext
	})

	return s
}

package search

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/doclens/doclens/internal/domain/search/filter"
	"github.com/doclens/doclens/internal/domain/search/request"
)

// fingerprintPayload is the canonical serialization of a request. Field
// order is fixed by the struct; slice values are sorted copies, so two
// requests with the same filter content built in different order hash to
// the same fingerprint. skipCache is deliberately absent: it changes cache
// usage, not the result content.
type fingerprintPayload struct {
	Query         string   `json:"query"`
	Mode          string   `json:"mode"`
	Technologies  []string `json:"technologies,omitempty"`
	Difficulties  []string `json:"difficulties,omitempty"`
	ContentTypes  []string `json:"content_types,omitempty"`
	Sources       []string `json:"sources,omitempty"`
	UpdatedFrom   int64    `json:"updated_from,omitempty"` // unix seconds, 0 = unset
	UpdatedTo     int64    `json:"updated_to,omitempty"`
	MaxResults    int      `json:"max_results"`
	Rerank        bool     `json:"rerank"`
	MinSimilarity float64  `json:"min_similarity"`
}

// Fingerprint produces a collision-resistant digest over the request's
// semantic content: query text, filters, and result-shaping options.
func Fingerprint(req *request.Request) string {
	f := req.Filters()

	p := fingerprintPayload{
		Query:         req.Query(),
		Mode:          string(req.Mode()),
		Technologies:  sortedCopy(f.Technologies()),
		Difficulties:  sortedCopy(difficultyStrings(f.Difficulties())),
		ContentTypes:  sortedCopy(f.ContentTypes()),
		Sources:       sortedCopy(f.Sources()),
		MaxResults:    req.MaxResults(),
		Rerank:        req.Rerank(),
		MinSimilarity: req.MinSimilarity(),
	}
	if t := f.UpdatedFrom(); t != nil {
		p.UpdatedFrom = t.Unix()
	}
	if t := f.UpdatedTo(); t != nil {
		p.UpdatedTo = t.Unix()
	}

	// Marshal cannot fail on this payload shape.
	data, _ := json.Marshal(p)
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func sortedCopy(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, len(vals))
	copy(out, vals)
	sort.Strings(out)
	return out
}

func difficultyStrings(ds []filter.Difficulty) []string {
	if len(ds) == 0 {
		return nil
	}
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}

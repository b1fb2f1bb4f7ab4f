package redis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/doclens/doclens/internal/domain/search/filter"
)

// Indexed hash field names shared by the KNN and BM25 queries.
const (
	fieldTechnologies = "technologies"
	fieldDifficulty   = "difficulty"
	fieldContentType  = "content_type"
	fieldSourceName   = "source_name"
	fieldUpdatedAt    = "updated_at"
)

// prefilter is a compiled FT.SEARCH filter: a query clause referencing
// bound parameters plus the name/value pairs for PARAMS. User-supplied
// values are never interpolated into the clause; they travel through
// PARAMS (dialect 2) so RediSearch treats them as literals.
type prefilter struct {
	clause string
	params []string // flat name, value pairs
}

// compileFilter translates a domain filter into an FT.SEARCH pre-filter.
// Each non-empty category compiles to one AND-ed clause; values within a
// category are OR-ed inside a single TAG group. An empty filter compiles
// to an empty clause.
func compileFilter(f filter.Filter) prefilter {
	if f.IsEmpty() {
		return prefilter{}
	}

	var p prefilter
	var clauses []string

	if c := p.bindTagGroup(fieldTechnologies, f.Technologies()); c != "" {
		clauses = append(clauses, c)
	}
	if c := p.bindTagGroup(fieldDifficulty, difficultyValues(f.Difficulties())); c != "" {
		clauses = append(clauses, c)
	}
	if c := p.bindTagGroup(fieldContentType, f.ContentTypes()); c != "" {
		clauses = append(clauses, c)
	}
	if c := p.bindTagGroup(fieldSourceName, f.Sources()); c != "" {
		clauses = append(clauses, c)
	}
	if c := dateRangeClause(f); c != "" {
		clauses = append(clauses, c)
	}

	p.clause = strings.Join(clauses, " ")
	return p
}

// bindTagGroup emits "@field:{$p0|$p1}" and registers one parameter per value.
func (p *prefilter) bindTagGroup(field string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	refs := make([]string, 0, len(values))
	for _, v := range values {
		name := "f" + strconv.Itoa(len(p.params)/2)
		p.params = append(p.params, name, v)
		refs = append(refs, "$"+name)
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(refs, "|"))
}

// dateRangeClause emits an inclusive numeric range over the update timestamp.
// Bounds are unix seconds derived from parsed time values, not raw user text.
func dateRangeClause(f filter.Filter) string {
	from, to := f.UpdatedFrom(), f.UpdatedTo()
	if from == nil && to == nil {
		return ""
	}

	minBound := "-inf"
	maxBound := "+inf"
	if from != nil {
		minBound = strconv.FormatInt(from.Unix(), 10)
	}
	if to != nil {
		maxBound = strconv.FormatInt(to.Unix(), 10)
	}
	return fmt.Sprintf("@%s:[%s %s]", fieldUpdatedAt, minBound, maxBound)
}

func difficultyValues(ds []filter.Difficulty) []string {
	if len(ds) == 0 {
		return nil
	}
	vals := make([]string, len(ds))
	for i, d := range ds {
		vals[i] = string(d)
	}
	return vals
}

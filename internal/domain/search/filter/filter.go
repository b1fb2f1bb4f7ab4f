package filter

import (
	"fmt"
	"time"
)

// MaxValuesPerCategory is the maximum number of values per filter category.
const MaxValuesPerCategory = 32

// Difficulty is the document difficulty level.
type Difficulty string

// Difficulty levels.
const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
	Expert       Difficulty = "expert"
)

// IsValid checks if the difficulty is one of the supported levels.
func (d Difficulty) IsValid() bool {
	return d == Beginner || d == Intermediate || d == Advanced || d == Expert
}

// Filter narrows a search to documents matching every non-empty category.
// Values within one category are alternatives (OR); categories combine as
// AND. An absent category imposes no constraint.
type Filter struct {
	technologies []string
	difficulties []Difficulty
	contentTypes []string
	sources      []string
	updatedFrom  *time.Time
	updatedTo    *time.Time
}

// New validates and creates a Filter. The date range is inclusive on both
// ends; either bound may be nil.
func New(
	technologies []string,
	difficulties []Difficulty,
	contentTypes []string,
	sources []string,
	updatedFrom, updatedTo *time.Time,
) (Filter, error) {
	for name, vals := range map[string][]string{
		"technologies":  technologies,
		"content_types": contentTypes,
		"sources":       sources,
	} {
		if len(vals) > MaxValuesPerCategory {
			return Filter{}, fmt.Errorf("too many %s values (max %d)", name, MaxValuesPerCategory)
		}
		for _, v := range vals {
			if v == "" {
				return Filter{}, fmt.Errorf("empty value in %s", name)
			}
		}
	}
	if len(difficulties) > MaxValuesPerCategory {
		return Filter{}, fmt.Errorf("too many difficulties values (max %d)", MaxValuesPerCategory)
	}
	for _, d := range difficulties {
		if !d.IsValid() {
			return Filter{}, fmt.Errorf("invalid difficulty %q", d)
		}
	}
	if updatedFrom != nil && updatedTo != nil && updatedTo.Before(*updatedFrom) {
		return Filter{}, fmt.Errorf("updated_to is before updated_from")
	}

	return Filter{
		technologies: technologies,
		difficulties: difficulties,
		contentTypes: contentTypes,
		sources:      sources,
		updatedFrom:  updatedFrom,
		updatedTo:    updatedTo,
	}, nil
}

// Technologies returns the technology tag alternatives.
func (f Filter) Technologies() []string { return f.technologies }

// Difficulties returns the difficulty level alternatives.
func (f Filter) Difficulties() []Difficulty { return f.difficulties }

// ContentTypes returns the content type alternatives.
func (f Filter) ContentTypes() []string { return f.contentTypes }

// Sources returns the source name allowlist.
func (f Filter) Sources() []string { return f.sources }

// UpdatedFrom returns the inclusive lower date bound, or nil.
func (f Filter) UpdatedFrom() *time.Time { return f.updatedFrom }

// UpdatedTo returns the inclusive upper date bound, or nil.
func (f Filter) UpdatedTo() *time.Time { return f.updatedTo }

// IsEmpty reports whether the filter imposes no constraint at all.
func (f Filter) IsEmpty() bool {
	return len(f.technologies) == 0 &&
		len(f.difficulties) == 0 &&
		len(f.contentTypes) == 0 &&
		len(f.sources) == 0 &&
		f.updatedFrom == nil &&
		f.updatedTo == nil
}

package course

import (
	"strings"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
)

// The catalog filter is an explicit condition tree rather than a single filter
// struct mutated field by field. Visibility and free-text search are both
// internally disjunctive; keeping them as separate Or nodes under one top-level
// And guarantees neither can absorb or replace the other.

type (
	// Condition is one node of the catalog filter tree.
	Condition interface {
		Match(crs Course) bool
	}

	// And matches when every child matches. An empty And matches everything.
	And []Condition

	// Or matches when at least one child matches. An empty Or matches nothing.
	Or []Condition

	// ActiveOnly matches active courses.
	ActiveOnly struct{}

	// OwnedBy matches courses taught by the given instructor.
	OwnedBy string

	// CategoryIs matches the course category exactly.
	CategoryIs string

	// LevelIs matches the course level exactly.
	LevelIs Level

	// FieldContains matches when the named course field contains the term,
	// case-insensitively. Valid fields: title, description, course_code.
	FieldContains struct {
		Field string
		Term  string
	}
)

func (c And) Match(crs Course) bool {
	for _, cond := range c {
		if !cond.Match(crs) {
			return false
		}
	}
	return true
}

func (c Or) Match(crs Course) bool {
	for _, cond := range c {
		if cond.Match(crs) {
			return true
		}
	}
	return false
}

func (ActiveOnly) Match(crs Course) bool { return crs.IsActive }

func (c OwnedBy) Match(crs Course) bool { return crs.InstructorID == string(c) }

func (c CategoryIs) Match(crs Course) bool { return crs.Category == string(c) }

func (c LevelIs) Match(crs Course) bool { return crs.Level == Level(c) }

func (c FieldContains) Match(crs Course) bool {
	var val string
	switch c.Field {
	case "title":
		val = crs.Title
	case "description":
		val = crs.Description
	case "course_code":
		val = crs.CourseCode
	}
	return strings.Contains(strings.ToLower(val), strings.ToLower(c.Term))
}

// QueryFilter carries the independently-specified catalog axes.
type QueryFilter struct {
	Category string `query:"category"`
	Level    Level  `query:"level"`
	Search   string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Category = core.CleanString(qf.Category)
	qf.Search = core.CleanString(qf.Search)
}

// CatalogQuery composes the catalog filter for the given actor:
// visibility AND category AND level AND search. Axes without a value are
// omitted entirely; present axes are never merged into one another.
func CatalogQuery(actor access.Actor, qf QueryFilter) Condition {
	visibility := Or{ActiveOnly{}}
	if actor.Authenticated() {
		visibility = append(visibility, OwnedBy(actor.ID))
	}

	cond := And{visibility}
	if qf.Category != "" {
		cond = append(cond, CategoryIs(qf.Category))
	}
	if qf.Level != "" {
		cond = append(cond, LevelIs(qf.Level))
	}
	if qf.Search != "" {
		cond = append(cond, Or{
			FieldContains{Field: "title", Term: qf.Search},
			FieldContains{Field: "description", Term: qf.Search},
			FieldContains{Field: "course_code", Term: qf.Search},
		})
	}
	return cond
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Pagination selects a page of catalog results. Page starts at 1.
type Pagination struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

// Clean normalizes out-of-range values to usable defaults.
func (pg *Pagination) Clean() {
	if pg.Page < 1 {
		pg.Page = 1
	}
	if pg.Limit < 1 {
		pg.Limit = defaultPageLimit
	}
	if pg.Limit > maxPageLimit {
		pg.Limit = maxPageLimit
	}
}

func (pg Pagination) Offset() int { return (pg.Page - 1) * pg.Limit }

// Page is one page of catalog results, ordered by creation time descending.
type Page struct {
	Results    []Course `json:"results"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	HasNext    bool     `json:"has_next"`
	HasPrev    bool     `json:"has_prev"`
}

// NewPage slices the full, already-ordered result set for the given pagination.
func NewPage(all []Course, pg Pagination) Page {
	total := len(all)
	start := pg.Offset()
	if start > total {
		start = total
	}
	end := start + pg.Limit
	if end > total {
		end = total
	}
	return Page{
		Results:    all[start:end],
		TotalCount: total,
		Page:       pg.Page,
		Limit:      pg.Limit,
		HasNext:    end < total,
		HasPrev:    pg.Page > 1,
	}
}

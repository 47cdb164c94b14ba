package course

import (
	"strings"
	"time"

	"github.com/chendurkumaran/eduresource/core"
	"github.com/chendurkumaran/eduresource/core/access"
)

// Level is the academic level a course is taught at. The set is fixed and ordered.
type Level string

const (
	LevelFirstYear  Level = "1st Year"
	LevelSecondYear Level = "2nd Year"
	LevelThirdYear  Level = "3rd Year"
	LevelFourthYear Level = "4th Year"
)

var Levels = []Level{LevelFirstYear, LevelSecondYear, LevelThirdYear, LevelFourthYear}

func (l Level) Valid() bool {
	for _, lvl := range Levels {
		if l == lvl {
			return true
		}
	}
	return false
}

// MaterialType is the kind of content a Material points at.
type MaterialType string

const (
	MaterialPDF      MaterialType = "pdf"
	MaterialVideo    MaterialType = "video"
	MaterialLink     MaterialType = "link"
	MaterialDocument MaterialType = "document"
	MaterialNote     MaterialType = "note"
)

var MaterialTypes = []MaterialType{MaterialPDF, MaterialVideo, MaterialLink, MaterialDocument, MaterialNote}

func (t MaterialType) Valid() bool {
	for _, mt := range MaterialTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Material is a single piece of content attached to a Course or Module.
// It is a value object: it has no identity outside its container.
type Material struct {
	Title       string       `json:"title"`
	Type        MaterialType `json:"type"`
	URL         string       `json:"url"`
	Filename    string       `json:"filename,omitempty"`
	Description string       `json:"description,omitempty"`
	UploadedAt  time.Time    `json:"uploaded_at"` // UTC
}

// Module is an ordered content unit within a Course. Its lifecycle is tied to
// the Course: it is only ever created, reordered or deleted through Course mutations.
type Module struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	Content     string     `json:"content,omitempty"` // markdown body
	Materials   []Material `json:"materials,omitempty"`
	// AssignmentIDs references assignments gating downstream content when
	// IsAssignmentBlocking is set. The gating itself is a presentation concern.
	AssignmentIDs        []string `json:"assignment_ids,omitempty"`
	IsAssignmentBlocking bool     `json:"is_assignment_blocking"`
}

type Course struct {
	ID           string     `json:"id"`
	InstructorID string     `json:"instructor_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	CourseCode   string     `json:"course_code"` // normalized upper, unique
	Category     string     `json:"category"`
	Level        Level      `json:"level"`
	Credits      int        `json:"credits"`
	MaxStudents  int        `json:"max_students"`
	IsActive     bool       `json:"is_active"`
	IsApproved   bool       `json:"is_approved"`
	IsFree       bool       `json:"is_free"`
	Thumbnail    string     `json:"thumbnail,omitempty"`
	Modules      []Module   `json:"modules,omitempty"`
	Materials    []Material `json:"materials,omitempty"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

// Access returns the view of this course the authorization predicates read.
func (c Course) Access() access.Course {
	return access.Course{
		InstructorID: c.InstructorID,
		IsActive:     c.IsActive,
		IsApproved:   c.IsApproved,
		IsFree:       c.IsFree,
	}
}

func (c Course) getModule(id string) (int, *Module) {
	for i := range c.Modules {
		if c.Modules[i].ID == id {
			return i, &c.Modules[i]
		}
	}
	return -1, nil
}

// NormalizeCode cleans a course code for storage and comparison.
func NormalizeCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	CourseCode  string `json:"course_code" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Level       Level  `json:"level" validate:"required,courselevel"`
	Credits     int    `json:"credits" validate:"min=0"`
	MaxStudents int    `json:"max_students" validate:"min=0"`
	IsFree      bool   `json:"is_free"`
	Thumbnail   string `json:"thumbnail"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.CourseCode = NormalizeCode(nc.CourseCode)
	nc.Category = core.CleanString(nc.Category)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Only non-nil fields are applied; omitted fields keep their previous values.
type UpdateCourse struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CourseCode  *string `json:"course_code"`
	Category    *string `json:"category"`
	Level       *Level  `json:"level" validate:"omitempty,courselevel"`
	Credits     *int    `json:"credits" validate:"omitempty,min=0"`
	MaxStudents *int    `json:"max_students" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active"`
	IsApproved  *bool   `json:"is_approved"`
	IsFree      *bool   `json:"is_free"`
	Thumbnail   *string `json:"thumbnail"`
}

func (uc *UpdateCourse) Validate() error {
	if uc.Title != nil {
		*uc.Title = core.CleanString(*uc.Title)
	}
	if uc.CourseCode != nil {
		*uc.CourseCode = NormalizeCode(*uc.CourseCode)
	}
	if uc.Category != nil {
		*uc.Category = core.CleanString(*uc.Category)
	}
	return core.Validate.Struct(uc)
}

// apply copies the provided fields onto crs, leaving the rest untouched.
func (uc UpdateCourse) apply(crs *Course) {
	if uc.Title != nil {
		crs.Title = *uc.Title
	}
	if uc.Description != nil {
		crs.Description = *uc.Description
	}
	if uc.CourseCode != nil {
		crs.CourseCode = *uc.CourseCode
	}
	if uc.Category != nil {
		crs.Category = *uc.Category
	}
	if uc.Level != nil {
		crs.Level = *uc.Level
	}
	if uc.Credits != nil {
		crs.Credits = *uc.Credits
	}
	if uc.MaxStudents != nil {
		crs.MaxStudents = *uc.MaxStudents
	}
	if uc.IsActive != nil {
		crs.IsActive = *uc.IsActive
	}
	if uc.IsApproved != nil {
		crs.IsApproved = *uc.IsApproved
	}
	if uc.IsFree != nil {
		crs.IsFree = *uc.IsFree
	}
	if uc.Thumbnail != nil {
		crs.Thumbnail = *uc.Thumbnail
	}
}

// NewModule contains information needed to append a Module to a Course.
type NewModule struct {
	Title                string `json:"title" validate:"required"`
	Description          string `json:"description"`
	Duration             string `json:"duration"`
	Content              string `json:"content"`
	IsAssignmentBlocking bool   `json:"is_assignment_blocking"`
}

func (nm *NewModule) Validate() error {
	nm.Title = core.CleanString(nm.Title)
	return core.Validate.Struct(nm)
}

// UpdateModule defines what information may be provided to modify an existing Module.
type UpdateModule struct {
	Title                *string `json:"title"`
	Description          *string `json:"description"`
	Duration             *string `json:"duration"`
	Content              *string `json:"content"`
	IsAssignmentBlocking *bool   `json:"is_assignment_blocking"`
}

func (um *UpdateModule) Validate() error {
	if um.Title != nil {
		*um.Title = core.CleanString(*um.Title)
	}
	return core.Validate.Struct(um)
}

func (um UpdateModule) apply(mod *Module) {
	if um.Title != nil {
		mod.Title = *um.Title
	}
	if um.Description != nil {
		mod.Description = *um.Description
	}
	if um.Duration != nil {
		mod.Duration = *um.Duration
	}
	if um.Content != nil {
		mod.Content = *um.Content
	}
	if um.IsAssignmentBlocking != nil {
		mod.IsAssignmentBlocking = *um.IsAssignmentBlocking
	}
}

// NewMaterial contains information needed to attach a Material to a Course or Module.
type NewMaterial struct {
	Title       string       `json:"title" validate:"required"`
	Type        MaterialType `json:"type" validate:"required,materialtype"`
	URL         string       `json:"url" validate:"required,url"`
	Filename    string       `json:"filename"`
	Description string       `json:"description"`
}

func (nm *NewMaterial) Validate() error {
	nm.Title = core.CleanString(nm.Title)
	return core.Validate.Struct(nm)
}

// UpdateMaterial defines what information may be provided to modify an existing Material.
type UpdateMaterial struct {
	Title       *string       `json:"title"`
	Type        *MaterialType `json:"type" validate:"omitempty,materialtype"`
	URL         *string       `json:"url" validate:"omitempty,url"`
	Filename    *string       `json:"filename"`
	Description *string       `json:"description"`
}

func (um *UpdateMaterial) Validate() error {
	if um.Title != nil {
		*um.Title = core.CleanString(*um.Title)
	}
	return core.Validate.Struct(um)
}

func (um UpdateMaterial) apply(mat *Material) {
	if um.Title != nil {
		mat.Title = *um.Title
	}
	if um.Type != nil {
		mat.Type = *um.Type
	}
	if um.URL != nil {
		mat.URL = *um.URL
	}
	if um.Filename != nil {
		mat.Filename = *um.Filename
	}
	if um.Description != nil {
		mat.Description = *um.Description
	}
}

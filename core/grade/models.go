package grade

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
)

// Grade is a single mark a Teacher gave a Student in a Subject.
type Grade struct {
	ID        int         `json:"id"`
	StudentID int         `json:"student_id"`
	SubjectID int         `json:"subject_id"`
	TeacherID int         `json:"teacher_id"`
	Value     float64     `json:"value"`
	Comment   null.String `json:"comment"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

type NewGrade struct {
	StudentID int     `json:"student_id" validate:"required"`
	SubjectID int     `json:"subject_id" validate:"required"`
	TeacherID int     `json:"teacher_id" validate:"required"`
	Value     float64 `json:"value" validate:"min=0,max=100"`
	Comment   string  `json:"comment"`
}

func (ng *NewGrade) Validate() error {
	ng.Comment = core.CleanString(ng.Comment)
	return core.Validate.Struct(ng)
}

// UpdateGrade patches a Grade's value and comment. The student, subject and
// teacher references are immutable; a wrong attribution is a delete + create.
type UpdateGrade struct {
	Value   null.Float64 `json:"value" validate:"omitempty,min=0,max=100"`
	Comment null.String  `json:"comment"`
}

func (ug *UpdateGrade) Validate() error {
	if ug.Comment.Valid {
		ug.Comment = null.StringFrom(core.CleanString(ug.Comment.String))
	}
	return core.Validate.Struct(ug)
}

func (ug UpdateGrade) Apply(grd *Grade) {
	if ug.Value.Valid {
		grd.Value = ug.Value.Float64
	}
	if ug.Comment.Valid {
		if ug.Comment.String == "" {
			grd.Comment = null.String{}
		} else {
			grd.Comment = ug.Comment
		}
	}
}

// SubjectSummary is a student's standing in one subject.
type SubjectSummary struct {
	SubjectID   int          `json:"subject_id"`
	SubjectName string       `json:"subject_name"`
	Grades      []Grade      `json:"grades"`
	Average     null.Float64 `json:"average"`
}

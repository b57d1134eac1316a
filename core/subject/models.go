package subject

import (
	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
)

// Subject is a course of study. Names are unique school-wide.
type Subject struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
}

type NewSubject struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)
	return core.Validate.Struct(ns)
}

// UpdateSubject patches a Subject. Absent (invalid) fields stay untouched;
// a valid-but-empty Description clears it.
type UpdateSubject struct {
	Name        null.String `json:"name" validate:"omitempty,max=100"`
	Description null.String `json:"description"`
}

func (us *UpdateSubject) Validate() error {
	if us.Name.Valid {
		us.Name = null.StringFrom(core.CleanString(us.Name.String))
	}
	return core.Validate.Struct(us)
}

func (us UpdateSubject) Apply(sub *Subject) {
	if us.Name.Valid {
		sub.Name = us.Name.String
	}
	if us.Description.Valid {
		if us.Description.String == "" {
			sub.Description = null.String{}
		} else {
			sub.Description = us.Description
		}
	}
}

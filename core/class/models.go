package class

import (
	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
)

// Class is a named group of students at a given level. The (Name, Level)
// pair is unique: two classes may share a name across levels but not
// within one.
type Class struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type NewClass struct {
	Name  string `json:"name" validate:"required,max=100"`
	Level int    `json:"level" validate:"required,min=1"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	return core.Validate.Struct(nc)
}

// UpdateClass patches a Class. Absent (invalid) fields stay untouched.
type UpdateClass struct {
	Name  null.String `json:"name" validate:"omitempty,max=100"`
	Level null.Int    `json:"level" validate:"omitempty,min=1"`
}

func (uc *UpdateClass) Validate() error {
	if uc.Name.Valid {
		uc.Name = null.StringFrom(core.CleanString(uc.Name.String))
	}
	return core.Validate.Struct(uc)
}

func (uc UpdateClass) Apply(cls *Class) {
	if uc.Name.Valid {
		cls.Name = uc.Name.String
	}
	if uc.Level.Valid {
		cls.Level = uc.Level.Int
	}
}

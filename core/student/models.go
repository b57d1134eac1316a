package student

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core/user"
)

// Student is the role-specialization profile of a User with RoleStudent.
// Exactly one profile may exist per identity.
type Student struct {
	UserID  int       `json:"user_id"`
	ClassID null.Int  `json:"class_id"`
	User    user.User `json:"user"`
}

// NewStudent contains information needed to create a Student together with
// its base User. The user insert and the profile insert are one atomic unit.
type NewStudent struct {
	user.NewUser
	ClassID null.Int `json:"class_id"`
}

func (ns *NewStudent) Validate(ctx context.Context, svc user.Service) error {
	ns.Role = user.RoleStudent
	return ns.NewUser.Validate(ctx, svc)
}

// UpdateStudent patches a Student and its base User. Absent (invalid) fields
// stay untouched; a valid ClassID of 0 clears the class assignment.
type UpdateStudent struct {
	user.UpdateUser
	ClassID null.Int `json:"class_id"`
}

func (us *UpdateStudent) Validate(ctx context.Context, orig Student, svc user.Service) error {
	return us.UpdateUser.Validate(ctx, orig.User, svc)
}

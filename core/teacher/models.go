package teacher

import (
	"context"

	"github.com/tkimaro/shule/core/user"
)

// Teacher is the role-specialization profile of a User with RoleTeacher,
// carrying its many-to-many subject and class associations.
type Teacher struct {
	UserID     int       `json:"user_id"`
	SubjectIDs []int     `json:"subject_ids"`
	ClassIDs   []int     `json:"class_ids"`
	User       user.User `json:"user"`
}

type NewTeacher struct {
	user.NewUser
	SubjectIDs []int `json:"subject_ids"`
	ClassIDs   []int `json:"class_ids"`
}

func (nt *NewTeacher) Validate(ctx context.Context, svc user.Service) error {
	nt.Role = user.RoleTeacher
	return nt.NewUser.Validate(ctx, svc)
}

// UpdateTeacher patches a Teacher and its base User. SubjectIDs/ClassIDs
// use replace semantics: a nil list leaves existing associations untouched,
// an explicit empty list clears them, any other list becomes the exact new
// association set.
type UpdateTeacher struct {
	user.UpdateUser
	SubjectIDs []int `json:"subject_ids"`
	ClassIDs   []int `json:"class_ids"`
}

func (ut *UpdateTeacher) Validate(ctx context.Context, orig Teacher, svc user.Service) error {
	return ut.UpdateUser.Validate(ctx, orig.User, svc)
}

// dedupe preserves first-seen order.
func dedupe(ids []int) []int {
	if ids == nil {
		return nil
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

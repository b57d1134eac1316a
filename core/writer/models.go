package writer

import (
	"context"

	"github.com/tkimaro/shule/core/user"
)

// Writer is the role-specialization profile of a User with RoleWriter.
// It carries no extra columns of its own; its substance is the articles
// it authors.
type Writer struct {
	UserID int       `json:"user_id"`
	User   user.User `json:"user"`
}

type NewWriter struct {
	user.NewUser
}

func (nw *NewWriter) Validate(ctx context.Context, svc user.Service) error {
	nw.Role = user.RoleWriter
	return nw.NewUser.Validate(ctx, svc)
}

type UpdateWriter struct {
	user.UpdateUser
}

func (uw *UpdateWriter) Validate(ctx context.Context, orig Writer, svc user.Service) error {
	return uw.UpdateUser.Validate(ctx, orig.User, svc)
}

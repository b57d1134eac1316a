package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/tkimaro/shule/core"
)

// Roles. A User holds exactly one; it decides which specialization profile
// (student/teacher/writer) the user may own and which routes are authorized.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleWriter  = "writer"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleWriter}

	Roles = []Role{
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Student", Value: RoleStudent},
		{Name: "Writer", Value: RoleWriter},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID             int         `json:"id"`
	Username       string      `json:"username"`
	Role           string      `json:"role"`
	Email          string      `json:"email"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	BirthDate      time.Time   `json:"birth_date"`
	PhoneNumber    null.String `json:"phone_number"`
	ProfilePicture null.String `json:"profile_picture"`
	PasswordHash   []byte      `json:"-"`

	EmailVerified           bool        `json:"email_verified"`
	EmailVerificationToken  null.String `json:"-"`
	EmailVerificationExpiry null.Time   `json:"-"`
	PasswordResetToken      null.String `json:"-"`
	PasswordResetExpiry     null.Time   `json:"-"`

	// Activated doubles as the soft-delete flag: rows are never removed,
	// deactivation is the only deletion.
	Activated bool `json:"activated"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) FullName() string {
	return core.CleanString(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsWriter() bool  { return u.Role == RoleWriter }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=2,alphanum_"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,role"`
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	BirthDate       string `json:"birth_date" validate:"required,isodate"`
	PhoneNumber     string `json:"phone_number" validate:"omitempty,min=10,max=15"`
}

func (nu *NewUser) Validate(ctx context.Context, svc Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.PhoneNumber = core.CleanString(nu.PhoneNumber)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing
// User. Patch semantics: a zero (invalid) null value is "absent" and leaves
// the stored value untouched; a valid value is written. For the nullable
// PhoneNumber column a valid-but-empty string clears it.
type UpdateUser struct {
	Username        null.String `json:"username" validate:"omitempty,min=2,alphanum_"`
	Password        null.String `json:"password"`
	PasswordConfirm null.String `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
	Email           null.String `json:"email" validate:"omitempty,email"`
	FirstName       null.String `json:"first_name"`
	LastName        null.String `json:"last_name"`
	BirthDate       null.String `json:"birth_date" validate:"omitempty,isodate"`
	PhoneNumber     null.String `json:"phone_number" validate:"omitempty,max=15"`
	Activated       null.Bool   `json:"activated"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, svc Service) error {
	if uu.Username.Valid {
		uu.Username = null.StringFrom(core.CleanString(uu.Username.String, true /* lower */))
	}
	if uu.Email.Valid {
		uu.Email = null.StringFrom(core.CleanString(uu.Email.String, true /* lower */))
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}

	uname := origUsr.Username
	email := origUsr.Email
	if uu.Username.Valid {
		uname = uu.Username.String
	}
	if uu.Email.Valid {
		email = uu.Email.String
	}
	return svc.CheckUniqueness(ctx, uname, email, origUsr)
}

// Apply copies the set patch fields onto usr. Birth dates have been
// validated as isodate already; password hashing is the service's job.
func (uu UpdateUser) Apply(usr *User) {
	if uu.Username.Valid {
		usr.Username = uu.Username.String
	}
	if uu.Email.Valid {
		usr.Email = uu.Email.String
	}
	if uu.FirstName.Valid {
		usr.FirstName = uu.FirstName.String
	}
	if uu.LastName.Valid {
		usr.LastName = uu.LastName.String
	}
	if uu.BirthDate.Valid {
		bd, _ := core.ParseBirthDate(uu.BirthDate.String)
		usr.BirthDate = bd
	}
	if uu.PhoneNumber.Valid {
		if uu.PhoneNumber.String == "" {
			usr.PhoneNumber = null.String{}
		} else {
			usr.PhoneNumber = uu.PhoneNumber
		}
	}
	if uu.Activated.Valid {
		usr.Activated = uu.Activated.Bool
	}
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search    string `query:"search"`
	Role      string `query:"role"`
	Activated *bool  `query:"activated"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Activated == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

var roleTag = "role"

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, "must be one of: admin, teacher, student, writer")
}

// roleValidation checks that the provided role is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

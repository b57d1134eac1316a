package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		QueryAllUsers(ctx context.Context, exec ...core.DBExecutor) ([]User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// User.Username, User.Email, User.FirstName or User.LastName.
		FilterUsers(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (User, error)
		GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string, exec ...core.DBExecutor) (User, error)
		GetUserByEmailVerificationToken(ctx context.Context, token string, exec ...core.DBExecutor) (User, error)
		GetUserByPasswordResetToken(ctx context.Context, token string, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		QueryAll(ctx context.Context) ([]User, error)
		Filter(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByUsername(ctx context.Context, uname string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, id int, uu UpdateUser) (User, error)
		// Delete soft-deletes: the account is deactivated, the row stays.
		Delete(ctx context.Context, id int) error
		Activate(ctx context.Context, id int) (User, error)
		Deactivate(ctx context.Context, id int) (User, error)
		IsAccountActive(usr User) bool

		GenerateEmailVerificationToken(ctx context.Context, usr User) (string, error)
		VerifyEmail(ctx context.Context, token string) (User, error)
		GeneratePasswordResetToken(ctx context.Context, usr User) (string, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error)

		SetProfilePicture(ctx context.Context, id int, name string) (User, error)
	}

	service struct {
		conf    *core.Config
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(conf *core.Config, db core.DB, repo Repository, mailSvc core.EmailService) Service {
	return &service{
		conf:    conf,
		db:      db,
		repo:    repo,
		mailSvc: mailSvc,
	}
}

// BuildUser assembles a persistable User from nu. The password is hashed;
// the account starts activated with an unverified email.
func BuildUser(nu NewUser) (User, error) {
	bd, err := core.ParseBirthDate(nu.BirthDate)
	if err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "birth_date", Error: "must be a date in YYYY-MM-DD format"})
	}
	now := time.Now().UTC()
	usr := User{
		Username:      nu.Username,
		Role:          nu.Role,
		Email:         nu.Email,
		FirstName:     nu.FirstName,
		LastName:      nu.LastName,
		BirthDate:     bd,
		PhoneNumber:   null.NewString(nu.PhoneNumber, nu.PhoneNumber != ""),
		EmailVerified: false,
		Activated:     true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr, err := BuildUser(nu)
	if err != nil {
		return User{}, err
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}

	token, err := svc.GenerateEmailVerificationToken(ctx, usr)
	if err != nil {
		return User{}, err
	}
	usr, err = svc.repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return User{}, err
	}
	svc.sendVerificationMail(usr, token)
	return usr, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	uu.Apply(&usr)
	if uu.Password.Valid && uu.Password.String != "" {
		if err = usr.SetPassword(uu.Password.String); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	_, err := svc.Deactivate(ctx, id)
	return err
}

func (svc *service) Activate(ctx context.Context, id int) (User, error) {
	return svc.setActivated(ctx, id, true)
}

func (svc *service) Deactivate(ctx context.Context, id int) (User, error) {
	return svc.setActivated(ctx, id, false)
}

func (svc *service) setActivated(ctx context.Context, id int, activated bool) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Activated = activated
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) IsAccountActive(usr User) bool { return usr.Activated }

func (svc *service) GenerateEmailVerificationToken(ctx context.Context, usr User) (string, error) {
	token, err := makeToken()
	if err != nil {
		return "", err
	}
	usr.EmailVerificationToken = null.StringFrom(token)
	usr.EmailVerificationExpiry = null.TimeFrom(nowFunc().UTC().Add(svc.conf.EmailVerificationTimeoutDelta))
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return "", err
	}
	return token, nil
}

func (svc *service) VerifyEmail(ctx context.Context, token string) (User, error) {
	usr, err := svc.repo.GetUserByEmailVerificationToken(ctx, token)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}
	if !tokenValid(usr.EmailVerificationToken, usr.EmailVerificationExpiry, token) {
		return User{}, ErrInvalidToken
	}

	// single use: verified flag set, token and expiry cleared
	usr.EmailVerified = true
	usr.EmailVerificationToken = null.String{}
	usr.EmailVerificationExpiry = null.Time{}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) GeneratePasswordResetToken(ctx context.Context, usr User) (string, error) {
	token, err := makeToken()
	if err != nil {
		return "", err
	}
	usr.PasswordResetToken = null.StringFrom(token)
	usr.PasswordResetExpiry = null.TimeFrom(nowFunc().UTC().Add(svc.conf.PasswordResetTimeoutDelta))
	usr.UpdatedAt = time.Now().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return "", err
	}
	return token, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := svc.GeneratePasswordResetToken(ctx, usr)
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(usr, token)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error) {
	usr, err := svc.repo.GetUserByPasswordResetToken(ctx, rp.Token)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}
	if !tokenValid(usr.PasswordResetToken, usr.PasswordResetExpiry, rp.Token) {
		return User{}, ErrInvalidToken
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return User{}, err
	}
	usr.PasswordResetToken = null.String{}
	usr.PasswordResetExpiry = null.Time{}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetProfilePicture(ctx context.Context, id int, name string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.ProfilePicture = null.NewString(name, name != "")
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) sendVerificationMail(usr User, token string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Verify your email address",
		TemplateName: "email-verification",
		TemplateData: struct {
			Name string
			URL  string
		}{
			Name: usr.FirstName,
			URL:  fmt.Sprintf("%s/verify-email?token=%s", svc.conf.FrontendBaseURL, token),
		},
	})
}

func (svc *service) sendPasswordResetMail(usr User, token string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Password reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name string
			URL  string
		}{
			Name: usr.FirstName,
			URL:  fmt.Sprintf("%s/password-reset?token=%s", svc.conf.FrontendBaseURL, token),
		},
	})
}

package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/grade"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
	"github.com/tkimaro/shule/core/writer"
	emailsvc "github.com/tkimaro/shule/services/email"
	storagesvc "github.com/tkimaro/shule/services/storage"
	inmemdb "github.com/tkimaro/shule/storage/database/inmem"
)

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

type testEnv struct {
	conf *core.Config
	app  Server

	usrSvc user.Service
	stdSvc student.Service
	tchSvc teacher.Service
	wrtSvc writer.Service
	clsSvc class.Service
	subSvc subject.Service
	grdSvc grade.Service
	artSvc article.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	emailsvc.ResetSentMessages()
	conf := core.NewTestConfig()
	db := inmemdb.NewDB()

	usrRepo := inmemdb.NewUserRepository(db)
	stdRepo := inmemdb.NewStudentRepository(db)
	tchRepo := inmemdb.NewTeacherRepository(db)
	wrtRepo := inmemdb.NewWriterRepository(db)
	clsRepo := inmemdb.NewClassRepository(db)
	subRepo := inmemdb.NewSubjectRepository(db)
	grdRepo := inmemdb.NewGradeRepository(db)
	artRepo := inmemdb.NewArticleRepository(db)

	usrSvc := user.NewService(conf, nil, usrRepo, emailsvc.NewConsoleServiceMock(conf))
	env := &testEnv{
		conf:   conf,
		usrSvc: usrSvc,
		stdSvc: student.NewService(nil, stdRepo, clsRepo, usrRepo, usrSvc),
		tchSvc: teacher.NewService(nil, tchRepo, subRepo, clsRepo, usrRepo, usrSvc),
		wrtSvc: writer.NewService(nil, wrtRepo, artRepo, usrRepo, usrSvc),
		clsSvc: class.NewService(clsRepo, stdRepo, tchRepo),
		subSvc: subject.NewService(subRepo, tchRepo),
		grdSvc: grade.NewService(grdRepo, stdRepo, subRepo, tchRepo),
		artSvc: article.NewService(artRepo, wrtRepo),
	}

	store, err := storagesvc.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() failed, %v", err)
	}
	env.app = NewServer(&Options{
		Conf:           conf,
		Logger:         testLogger{},
		DisableReqLogs: true,
		UserSvc:        env.usrSvc,
		StudentSvc:     env.stdSvc,
		TeacherSvc:     env.tchSvc,
		WriterSvc:      env.wrtSvc,
		ClassSvc:       env.clsSvc,
		SubjectSvc:     env.subSvc,
		GradeSvc:       env.grdSvc,
		ArticleSvc:     env.artSvc,
		FileStore:      store,
	})
	return env
}

func (env *testEnv) createUser(t *testing.T, uname, role string) user.User {
	t.Helper()
	usr, err := env.usrSvc.Create(context.Background(), user.NewUser{
		Username:        uname,
		Password:        "LocalH0st",
		PasswordConfirm: "LocalH0st",
		Role:            role,
		Email:           uname + "@test.cd",
		FirstName:       "Jina",
		LastName:        "Langu",
		BirthDate:       "1999-12-31",
	})
	if err != nil {
		t.Fatalf("createUser() failed, %v", err)
	}
	return usr
}

func (env *testEnv) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(env.conf, GetUserClaims(env.conf, usr))
	if err != nil {
		t.Fatalf("token() failed, %v", err)
	}
	return token
}

func (env *testEnv) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)
	return rec
}

func TestServer_home(t *testing.T) {
	env := setup(t)

	rec := env.request(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Shule")
}

func TestServer_login(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "awe", user.RoleStudent)
	deactivated := env.createUser(t, "zombie", user.RoleStudent)
	if err := env.usrSvc.Delete(context.Background(), deactivated.ID); err != nil {
		t.Fatalf("Delete() failed, %v", err)
	}

	tests := []struct {
		name     string
		body     LoginRequest
		wantCode int
	}{
		{name: "ok", body: LoginRequest{Username: "awe", Password: "LocalH0st"}, wantCode: http.StatusOK},
		{name: "ok by email", body: LoginRequest{Username: usr.Email, Password: "LocalH0st"}, wantCode: http.StatusOK},
		{name: "wrong password", body: LoginRequest{Username: "awe", Password: "nope"}, wantCode: http.StatusBadRequest},
		{name: "unknown user", body: LoginRequest{Username: "ghost", Password: "LocalH0st"}, wantCode: http.StatusBadRequest},
		{name: "deactivated", body: LoginRequest{Username: "zombie", Password: "LocalH0st"}, wantCode: http.StatusForbidden},
		{name: "missing fields", body: LoginRequest{}, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.request(http.MethodPost, "/v1/users/login", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func TestServer_userRegister_adminOnly(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)
	std := env.createUser(t, "awe", user.RoleStudent)

	body := user.NewUser{
		Username:        "newbie",
		Password:        "LocalH0st",
		PasswordConfirm: "LocalH0st",
		Role:            user.RoleWriter,
		Email:           "newbie@test.cd",
		FirstName:       "Jina",
		LastName:        "Langu",
		BirthDate:       "2000-01-01",
	}

	rec := env.request(http.MethodPost, "/v1/users/register", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.request(http.MethodPost, "/v1/users/register", env.token(t, std), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(http.MethodPost, "/v1/users/register", env.token(t, admin), body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created user.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "newbie", created.Username)
	assert.Equal(t, user.RoleWriter, created.Role)

	// duplicate username is a field error
	rec = env.request(http.MethodPost, "/v1/users/register", env.token(t, admin), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username")
}

func TestServer_userQuery_roleFilter(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)
	env.createUser(t, "awe", user.RoleStudent)
	env.createUser(t, "king", user.RoleStudent)
	env.createUser(t, "mwalimu", user.RoleTeacher)

	rec := env.request(http.MethodGet, "/v1/users?role=teacher", env.token(t, admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var users []user.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	if assert.Len(t, users, 1) {
		assert.Equal(t, "mwalimu", users[0].Username)
	}

	rec = env.request(http.MethodGet, "/v1/users?role=student", env.token(t, admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	users = nil
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestServer_userDetail_selfOrAdmin(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)
	awe := env.createUser(t, "awe", user.RoleStudent)
	king := env.createUser(t, "king", user.RoleStudent)

	path := func(id int) string { return fmt.Sprintf("/v1/users/%d", id) }

	// self
	rec := env.request(http.MethodGet, path(awe.ID), env.token(t, awe), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// someone else: a 404, nothing leaks
	rec = env.request(http.MethodGet, path(king.ID), env.token(t, awe), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// admin reaches anyone
	rec = env.request(http.MethodGet, path(king.ID), env.token(t, admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// non-admin cannot touch the gated fields
	rec = env.request(http.MethodPut, path(awe.ID), env.token(t, awe),
		user.UpdateUser{Username: null.StringFrom("imposter")})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// but can update their own profile
	rec = env.request(http.MethodPut, path(awe.ID), env.token(t, awe),
		user.UpdateUser{FirstName: null.StringFrom("Maji")})
	assert.Equal(t, http.StatusOK, rec.Code)

	// no self-delete
	rec = env.request(http.MethodDelete, path(admin.ID), env.token(t, admin), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(http.MethodDelete, path(awe.ID), env.token(t, admin), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_gradeCreate_teacherOnly(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin", user.RoleAdmin)
	std, err := env.stdSvc.Create(ctx, student.NewStudent{NewUser: user.NewUser{
		Username: "awe", Password: "LocalH0st", PasswordConfirm: "LocalH0st",
		Role: user.RoleStudent, Email: "awe@test.cd",
		FirstName: "Jina", LastName: "Langu", BirthDate: "2007-02-02",
	}})
	if err != nil {
		t.Fatalf("students.Create() failed, %v", err)
	}
	sub, err := env.subSvc.Create(ctx, subject.NewSubject{Name: "Hisabati"})
	if err != nil {
		t.Fatalf("subjects.Create() failed, %v", err)
	}
	tchr, err := env.tchSvc.Create(ctx, teacher.NewTeacher{NewUser: user.NewUser{
		Username: "mwalimu", Password: "LocalH0st", PasswordConfirm: "LocalH0st",
		Role: user.RoleTeacher, Email: "mwalimu@test.cd",
		FirstName: "Jina", LastName: "Langu", BirthDate: "1985-03-03",
	}, SubjectIDs: []int{sub.ID}})
	if err != nil {
		t.Fatalf("teachers.Create() failed, %v", err)
	}

	body := grade.NewGrade{StudentID: std.UserID, SubjectID: sub.ID, TeacherID: tchr.UserID, Value: 88}

	// students cannot record marks
	rec := env.request(http.MethodPost, "/v1/grades", env.token(t, std.User), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// teachers record under their own name
	rec = env.request(http.MethodPost, "/v1/grades", env.token(t, tchr.User), body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	other := body
	other.TeacherID = admin.ID
	rec = env.request(http.MethodPost, "/v1/grades", env.token(t, tchr.User), other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// students see their own marks
	rec = env.request(http.MethodGet, fmt.Sprintf("/v1/students/%d/grades", std.UserID), env.token(t, std.User), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var grades []grade.Grade
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grades))
	assert.Len(t, grades, 1)

	// but nobody else's
	rec = env.request(http.MethodGet, fmt.Sprintf("/v1/students/%d/grades", admin.ID), env.token(t, std.User), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_articles(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	wrt, err := env.wrtSvc.Create(ctx, writer.NewWriter{NewUser: user.NewUser{
		Username: "mwandishi", Password: "LocalH0st", PasswordConfirm: "LocalH0st",
		Role: user.RoleWriter, Email: "mwandishi@test.cd",
		FirstName: "Jina", LastName: "Langu", BirthDate: "1991-08-08",
	}})
	if err != nil {
		t.Fatalf("writers.Create() failed, %v", err)
	}
	std := env.createUser(t, "awe", user.RoleStudent)

	// students cannot publish
	rec := env.request(http.MethodPost, "/v1/articles", env.token(t, std),
		article.NewArticle{Title: "Nope", Content: "..."})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// writers publish under their own name
	rec = env.request(http.MethodPost, "/v1/articles", env.token(t, wrt.User),
		article.NewArticle{Title: "Term Opening", Content: "Karibuni.", Published: true})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var art article.Article
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &art))
	assert.Equal(t, wrt.UserID, art.AuthorID)

	// a draft
	rec = env.request(http.MethodPost, "/v1/articles", env.token(t, wrt.User),
		article.NewArticle{Title: "Draft", Content: "..."})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var draft article.Article
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &draft))

	// the published listing is public and excludes drafts
	rec = env.request(http.MethodGet, "/v1/articles/published", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var articles []article.Article
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &articles))
	assert.Len(t, articles, 1)
	assert.Equal(t, art.ID, articles[0].ID)

	// drafts hide from everyone but the author and admins
	rec = env.request(http.MethodGet, fmt.Sprintf("/v1/articles/%d", draft.ID), env.token(t, std), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.request(http.MethodGet, fmt.Sprintf("/v1/articles/%d", draft.ID), env.token(t, wrt.User), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_articleCreate_adminAuthorship(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin", user.RoleAdmin)

	wrt, err := env.wrtSvc.Create(ctx, writer.NewWriter{NewUser: user.NewUser{
		Username: "mwandishi", Password: "LocalH0st", PasswordConfirm: "LocalH0st",
		Role: user.RoleWriter, Email: "mwandishi@test.cd",
		FirstName: "Jina", LastName: "Langu", BirthDate: "1991-08-08",
	}})
	if err != nil {
		t.Fatalf("writers.Create() failed, %v", err)
	}

	// admins must name an author
	rec := env.request(http.MethodPost, "/v1/articles", env.token(t, admin),
		article.NewArticle{Title: "Anonymous", Content: "..."})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "author_id")

	// and the author must hold a writer profile
	rec = env.request(http.MethodPost, "/v1/articles", env.token(t, admin),
		article.NewArticle{AuthorID: admin.ID, Title: "Imposter", Content: "..."})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.request(http.MethodPost, "/v1/articles", env.token(t, admin),
		article.NewArticle{AuthorID: wrt.UserID, Title: "Ghostwritten", Content: "..."})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var art article.Article
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &art))
	assert.Equal(t, wrt.UserID, art.AuthorID)
}

func TestServer_classesAndSubjects(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)
	std := env.createUser(t, "awe", user.RoleStudent)

	// admin gates
	rec := env.request(http.MethodPost, "/v1/classes", env.token(t, std), class.NewClass{Name: "A", Level: 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(http.MethodPost, "/v1/classes", env.token(t, admin), class.NewClass{Name: "A", Level: 1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var cls class.Class
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cls))

	// duplicate (name, level) is a field error
	rec = env.request(http.MethodPost, "/v1/classes", env.token(t, admin), class.NewClass{Name: "A", Level: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name")

	// anyone authed can browse
	rec = env.request(http.MethodGet, "/v1/classes", env.token(t, std), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(http.MethodGet, "/v1/classes/level/1", env.token(t, std), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var classes []class.Class
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
	assert.Len(t, classes, 1)

	rec = env.request(http.MethodPost, "/v1/subjects", env.token(t, admin), subject.NewSubject{Name: "Hisabati"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = env.request(http.MethodGet, "/v1/subjects", env.token(t, std), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// bad IDs read as 404, not 400
	rec = env.request(http.MethodGet, "/v1/classes/abc", env.token(t, std), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.request(http.MethodGet, "/v1/subjects/999", env.token(t, std), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_verifyEmail(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)

	token, err := env.usrSvc.GenerateEmailVerificationToken(context.Background(), admin)
	if err != nil {
		t.Fatalf("GenerateEmailVerificationToken() failed, %v", err)
	}

	rec := env.request(http.MethodPost, "/v1/users/verify-email", "", VerifyEmailRequest{Token: "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(http.MethodPost, "/v1/users/verify-email", "", VerifyEmailRequest{Token: token})
	assert.Equal(t, http.StatusOK, rec.Code)

	// single use
	rec = env.request(http.MethodPost, "/v1/users/verify-email", "", VerifyEmailRequest{Token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_passwordReset(t *testing.T) {
	env := setup(t)
	env.createUser(t, "awe", user.RoleStudent)

	// the response never reveals whether the account exists
	rec := env.request(http.MethodPost, "/v1/users/password-reset", "", PasswordResetRequest{Email: "awe@test.cd"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.request(http.MethodPost, "/v1/users/password-reset", "", PasswordResetRequest{Email: "ghost@test.cd"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

package class_test

import (
	"context"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
	emailsvc "github.com/tkimaro/shule/services/email"
	inmemdb "github.com/tkimaro/shule/storage/database/inmem"
)

type testEnv struct {
	svc    class.Service
	stdSvc student.Service
	tchSvc teacher.Service
}

func setup(t *testing.T) testEnv {
	t.Helper()
	emailsvc.ResetSentMessages()
	conf := core.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	stdRepo := inmemdb.NewStudentRepository(db)
	subRepo := inmemdb.NewSubjectRepository(db)
	clsRepo := inmemdb.NewClassRepository(db)
	tchRepo := inmemdb.NewTeacherRepository(db)
	usrSvc := user.NewService(conf, nil, usrRepo, emailsvc.NewConsoleServiceMock(conf))
	return testEnv{
		svc:    class.NewService(clsRepo, stdRepo, tchRepo),
		stdSvc: student.NewService(nil, stdRepo, clsRepo, usrRepo, usrSvc),
		tchSvc: teacher.NewService(nil, tchRepo, subRepo, clsRepo, usrRepo, usrSvc),
	}
}

func newUserData(uname, role string) user.NewUser {
	return user.NewUser{
		Username:        uname,
		Password:        "LocalH0st",
		PasswordConfirm: "LocalH0st",
		Role:            role,
		Email:           uname + "@test.cd",
		FirstName:       "Jina",
		LastName:        "Langu",
		BirthDate:       "1995-01-30",
	}
}

func TestService_Create_uniqueNamePerLevel(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, class.NewClass{Name: "A", Level: 1}); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	// same name at another level is fine
	if _, err := env.svc.Create(ctx, class.NewClass{Name: "A", Level: 2}); err != nil {
		t.Fatalf("Create() same name, other level failed, %v", err)
	}

	// duplicate pair rejected
	_, err := env.svc.Create(ctx, class.NewClass{Name: "A", Level: 1})
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("Create() error = %v, want *core.ValidationError", err)
	}
	if len(vErr.Fields) == 0 || vErr.Fields[0].Field != "name" {
		t.Errorf("ValidationError fields = %v, want a name error", vErr.Fields)
	}
}

func TestService_Update_uniquenessExcludesSelf(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	cls, err := env.svc.Create(ctx, class.NewClass{Name: "A", Level: 1})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if _, err = env.svc.Create(ctx, class.NewClass{Name: "B", Level: 1}); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	// renaming to its own name is a no-op, not a conflict
	if _, err = env.svc.Update(ctx, cls.ID, class.UpdateClass{Name: null.StringFrom("A")}); err != nil {
		t.Fatalf("Update() failed, %v", err)
	}

	// renaming onto another class at the same level is a conflict
	if _, err = env.svc.Update(ctx, cls.ID, class.UpdateClass{Name: null.StringFrom("B")}); err == nil {
		t.Error("Update() to a taken (name, level) pair passed, want error")
	}
}

func TestService_StudentsAndCount(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	cls, err := env.svc.Create(ctx, class.NewClass{Name: "A", Level: 1})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	for _, uname := range []string{"awe", "king"} {
		_, err = env.stdSvc.Create(ctx, student.NewStudent{NewUser: newUserData(uname, user.RoleStudent), ClassID: null.IntFrom(cls.ID)})
		if err != nil {
			t.Fatalf("students.Create() failed, %v", err)
		}
	}

	students, err := env.svc.Students(ctx, cls.ID)
	if err != nil {
		t.Fatalf("Students() failed, %v", err)
	}
	if len(students) != 2 {
		t.Errorf("Students() returned %d, want 2", len(students))
	}
	count, err := env.svc.StudentCount(ctx, cls.ID)
	if err != nil {
		t.Fatalf("StudentCount() failed, %v", err)
	}
	if count != 2 {
		t.Errorf("StudentCount() = %d, want 2", count)
	}
}

func TestService_AddRemoveTeacher(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	cls, err := env.svc.Create(ctx, class.NewClass{Name: "A", Level: 1})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	tchr, err := env.tchSvc.Create(ctx, teacher.NewTeacher{NewUser: newUserData("mwalimu", user.RoleTeacher)})
	if err != nil {
		t.Fatalf("teachers.Create() failed, %v", err)
	}

	if err = env.svc.AddTeacher(ctx, cls.ID, tchr.UserID); err != nil {
		t.Fatalf("AddTeacher() failed, %v", err)
	}
	teachers, err := env.svc.Teachers(ctx, cls.ID)
	if err != nil {
		t.Fatalf("Teachers() failed, %v", err)
	}
	if len(teachers) != 1 || teachers[0].UserID != tchr.UserID {
		t.Errorf("Teachers() = %v, want [%d]", teachers, tchr.UserID)
	}

	classes, err := env.svc.QueryByTeacher(ctx, tchr.UserID)
	if err != nil {
		t.Fatalf("QueryByTeacher() failed, %v", err)
	}
	if len(classes) != 1 || classes[0].ID != cls.ID {
		t.Errorf("QueryByTeacher() = %v, want [%d]", classes, cls.ID)
	}

	if err = env.svc.RemoveTeacher(ctx, cls.ID, tchr.UserID); err != nil {
		t.Fatalf("RemoveTeacher() failed, %v", err)
	}
	teachers, err = env.svc.Teachers(ctx, cls.ID)
	if err != nil {
		t.Fatalf("Teachers() failed, %v", err)
	}
	if len(teachers) != 0 {
		t.Errorf("Teachers() = %v, want empty", teachers)
	}

	// both sides must exist
	if err = env.svc.AddTeacher(ctx, 404, tchr.UserID); err != class.ErrNotFound {
		t.Errorf("AddTeacher(404) error = %v, want ErrNotFound", err)
	}
	if err = env.svc.AddTeacher(ctx, cls.ID, 404); err != teacher.ErrNotFound {
		t.Errorf("AddTeacher(.., 404) error = %v, want teacher.ErrNotFound", err)
	}
}

func TestService_Delete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	cls, err := env.svc.Create(ctx, class.NewClass{Name: "A", Level: 1})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	std, err := env.stdSvc.Create(ctx, student.NewStudent{NewUser: newUserData("awe", user.RoleStudent), ClassID: null.IntFrom(cls.ID)})
	if err != nil {
		t.Fatalf("students.Create() failed, %v", err)
	}
	tchr, err := env.tchSvc.Create(ctx, teacher.NewTeacher{NewUser: newUserData("mwalimu", user.RoleTeacher), ClassIDs: []int{cls.ID}})
	if err != nil {
		t.Fatalf("teachers.Create() failed, %v", err)
	}

	if err = env.svc.Delete(ctx, cls.ID); err != nil {
		t.Fatalf("Delete() failed, %v", err)
	}
	if _, err = env.svc.GetByID(ctx, cls.ID); err != class.ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}

	// students end up unassigned, not deleted
	std, err = env.stdSvc.GetByID(ctx, std.UserID)
	if err != nil {
		t.Fatalf("students.GetByID() failed, %v", err)
	}
	if std.ClassID.Valid {
		t.Errorf("student ClassID = %v, want unassigned", std.ClassID)
	}

	// teacher associations are dropped
	tchr, err = env.tchSvc.GetByID(ctx, tchr.UserID)
	if err != nil {
		t.Fatalf("teachers.GetByID() failed, %v", err)
	}
	if len(tchr.ClassIDs) != 0 {
		t.Errorf("teacher ClassIDs = %v, want empty", tchr.ClassIDs)
	}
}

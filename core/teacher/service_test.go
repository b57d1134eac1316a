package teacher_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
	emailsvc "github.com/tkimaro/shule/services/email"
	inmemdb "github.com/tkimaro/shule/storage/database/inmem"
)

type testEnv struct {
	svc     teacher.Service
	subRepo subject.Repository
	clsRepo class.Repository
}

func setup(t *testing.T) testEnv {
	t.Helper()
	emailsvc.ResetSentMessages()
	conf := core.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	subRepo := inmemdb.NewSubjectRepository(db)
	clsRepo := inmemdb.NewClassRepository(db)
	usrSvc := user.NewService(conf, nil, usrRepo, emailsvc.NewConsoleServiceMock(conf))
	return testEnv{
		svc:     teacher.NewService(nil, inmemdb.NewTeacherRepository(db), subRepo, clsRepo, usrRepo, usrSvc),
		subRepo: subRepo,
		clsRepo: clsRepo,
	}
}

func (env testEnv) newSubject(t *testing.T, name string) subject.Subject {
	t.Helper()
	sub, err := env.subRepo.CreateSubject(context.Background(), subject.Subject{Name: name})
	if err != nil {
		t.Fatalf("CreateSubject() failed, %v", err)
	}
	return sub
}

func (env testEnv) newClass(t *testing.T, name string, level int) class.Class {
	t.Helper()
	cls, err := env.clsRepo.CreateClass(context.Background(), class.Class{Name: name, Level: level})
	if err != nil {
		t.Fatalf("CreateClass() failed, %v", err)
	}
	return cls
}

func newTeacher(uname string, subjectIDs, classIDs []int) teacher.NewTeacher {
	return teacher.NewTeacher{
		NewUser: user.NewUser{
			Username:        uname,
			Password:        "LocalH0st",
			PasswordConfirm: "LocalH0st",
			Role:            user.RoleTeacher,
			Email:           uname + "@test.cd",
			FirstName:       "Jina",
			LastName:        "Langu",
			BirthDate:       "1985-11-02",
		},
		SubjectIDs: subjectIDs,
		ClassIDs:   classIDs,
	}
}

func TestService_Create(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sub1 := env.newSubject(t, "Hisabati")
	sub2 := env.newSubject(t, "Fizikia")
	cls := env.newClass(t, "A", 1)

	tchr, err := env.svc.Create(ctx, newTeacher("awe", []int{sub1.ID, sub2.ID, sub2.ID, sub1.ID}, []int{cls.ID}))
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if tchr.User.Role != user.RoleTeacher {
		t.Errorf("Role = %q, want teacher", tchr.User.Role)
	}
	// duplicates collapse, order kept
	if !reflect.DeepEqual(tchr.SubjectIDs, []int{sub1.ID, sub2.ID}) {
		t.Errorf("SubjectIDs = %v, want [%d %d]", tchr.SubjectIDs, sub1.ID, sub2.ID)
	}
	if !reflect.DeepEqual(tchr.ClassIDs, []int{cls.ID}) {
		t.Errorf("ClassIDs = %v, want [%d]", tchr.ClassIDs, cls.ID)
	}
}

func TestService_Create_unknownReferences(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	cls := env.newClass(t, "A", 1)

	if _, err := env.svc.Create(ctx, newTeacher("awe", []int{404}, nil)); err != teacher.ErrSubjectNotFound {
		t.Errorf("Create() error = %v, want ErrSubjectNotFound", err)
	}
	if _, err := env.svc.Create(ctx, newTeacher("awe", nil, []int{cls.ID, 404})); err != teacher.ErrClassNotFound {
		t.Errorf("Create() error = %v, want ErrClassNotFound", err)
	}
}

func TestService_Update_associations(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sub1 := env.newSubject(t, "Hisabati")
	sub2 := env.newSubject(t, "Fizikia")
	sub3 := env.newSubject(t, "Kemia")
	sub4 := env.newSubject(t, "Biolojia")
	cls := env.newClass(t, "A", 1)

	tchr, err := env.svc.Create(ctx, newTeacher("awe", []int{sub1.ID, sub2.ID}, []int{cls.ID}))
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	id := tchr.UserID

	// nil leaves associations untouched
	tchr, err = env.svc.Update(ctx, id, teacher.UpdateTeacher{})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if !reflect.DeepEqual(tchr.SubjectIDs, []int{sub1.ID, sub2.ID}) {
		t.Errorf("SubjectIDs = %v, want [%d %d]", tchr.SubjectIDs, sub1.ID, sub2.ID)
	}
	if !reflect.DeepEqual(tchr.ClassIDs, []int{cls.ID}) {
		t.Errorf("ClassIDs = %v, want [%d]", tchr.ClassIDs, cls.ID)
	}

	// a list replaces the association set exactly
	tchr, err = env.svc.Update(ctx, id, teacher.UpdateTeacher{SubjectIDs: []int{sub3.ID, sub4.ID, sub3.ID}})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if !reflect.DeepEqual(tchr.SubjectIDs, []int{sub3.ID, sub4.ID}) {
		t.Errorf("SubjectIDs = %v, want [%d %d]", tchr.SubjectIDs, sub3.ID, sub4.ID)
	}
	if !reflect.DeepEqual(tchr.ClassIDs, []int{cls.ID}) {
		t.Errorf("ClassIDs = %v, want [%d]", tchr.ClassIDs, cls.ID)
	}

	// a list naming a nonexistent subject is rejected whole
	if _, err = env.svc.Update(ctx, id, teacher.UpdateTeacher{SubjectIDs: []int{sub1.ID, 404}}); err != teacher.ErrSubjectNotFound {
		t.Errorf("Update() error = %v, want ErrSubjectNotFound", err)
	}
	tchr, err = env.svc.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID() failed, %v", err)
	}
	if !reflect.DeepEqual(tchr.SubjectIDs, []int{sub3.ID, sub4.ID}) {
		t.Errorf("SubjectIDs = %v after rejected update, want [%d %d]", tchr.SubjectIDs, sub3.ID, sub4.ID)
	}

	// an explicit empty list clears
	tchr, err = env.svc.Update(ctx, id, teacher.UpdateTeacher{ClassIDs: []int{}})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if len(tchr.ClassIDs) != 0 {
		t.Errorf("ClassIDs = %v, want empty", tchr.ClassIDs)
	}
	if !reflect.DeepEqual(tchr.SubjectIDs, []int{sub3.ID, sub4.ID}) {
		t.Errorf("SubjectIDs = %v, want [%d %d]", tchr.SubjectIDs, sub3.ID, sub4.ID)
	}
}

func TestService_AddRemoveAssociations(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sub := env.newSubject(t, "Hisabati")
	cls := env.newClass(t, "A", 1)

	tchr, err := env.svc.Create(ctx, newTeacher("awe", nil, nil))
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	id := tchr.UserID

	tchr, err = env.svc.AddSubject(ctx, id, sub.ID)
	if err != nil {
		t.Fatalf("AddSubject() failed, %v", err)
	}
	// idempotent
	tchr, err = env.svc.AddSubject(ctx, id, sub.ID)
	if err != nil {
		t.Fatalf("AddSubject() repeat failed, %v", err)
	}
	if !reflect.DeepEqual(tchr.SubjectIDs, []int{sub.ID}) {
		t.Errorf("SubjectIDs = %v, want [%d]", tchr.SubjectIDs, sub.ID)
	}

	// unknown references are rejected
	if _, err = env.svc.AddSubject(ctx, id, 404); err != teacher.ErrSubjectNotFound {
		t.Errorf("AddSubject() error = %v, want ErrSubjectNotFound", err)
	}
	if _, err = env.svc.AddClass(ctx, id, 404); err != teacher.ErrClassNotFound {
		t.Errorf("AddClass() error = %v, want ErrClassNotFound", err)
	}

	tchr, err = env.svc.AddClass(ctx, id, cls.ID)
	if err != nil {
		t.Fatalf("AddClass() failed, %v", err)
	}
	if !reflect.DeepEqual(tchr.ClassIDs, []int{cls.ID}) {
		t.Errorf("ClassIDs = %v, want [%d]", tchr.ClassIDs, cls.ID)
	}

	tchr, err = env.svc.RemoveSubject(ctx, id, sub.ID)
	if err != nil {
		t.Fatalf("RemoveSubject() failed, %v", err)
	}
	if len(tchr.SubjectIDs) != 0 {
		t.Errorf("SubjectIDs = %v, want empty", tchr.SubjectIDs)
	}
	// removing an absent association is a no-op
	if _, err = env.svc.RemoveSubject(ctx, id, 42); err != nil {
		t.Errorf("RemoveSubject() absent failed, %v", err)
	}
}

func TestService_QueryBySubjectAndClass(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	sub1 := env.newSubject(t, "Hisabati")
	sub2 := env.newSubject(t, "Fizikia")
	cls := env.newClass(t, "A", 1)

	if _, err := env.svc.Create(ctx, newTeacher("awe", []int{sub1.ID}, []int{cls.ID})); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if _, err := env.svc.Create(ctx, newTeacher("king", []int{sub1.ID, sub2.ID}, nil)); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	bySub, err := env.svc.QueryBySubject(ctx, sub1.ID)
	if err != nil {
		t.Fatalf("QueryBySubject() failed, %v", err)
	}
	if len(bySub) != 2 {
		t.Errorf("QueryBySubject(%d) returned %d teachers, want 2", sub1.ID, len(bySub))
	}

	byCls, err := env.svc.QueryByClass(ctx, cls.ID)
	if err != nil {
		t.Fatalf("QueryByClass() failed, %v", err)
	}
	if len(byCls) != 1 {
		t.Errorf("QueryByClass(%d) returned %d teachers, want 1", cls.ID, len(byCls))
	}
}

func TestService_GetByID_notFound(t *testing.T) {
	env := setup(t)

	if _, err := env.svc.GetByID(context.Background(), 404); err != teacher.ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

package subject_test

import (
	"context"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
	emailsvc "github.com/tkimaro/shule/services/email"
	inmemdb "github.com/tkimaro/shule/storage/database/inmem"
)

func setup(t *testing.T) (subject.Service, teacher.Service) {
	t.Helper()
	emailsvc.ResetSentMessages()
	conf := core.NewTestConfig()
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	subRepo := inmemdb.NewSubjectRepository(db)
	clsRepo := inmemdb.NewClassRepository(db)
	tchRepo := inmemdb.NewTeacherRepository(db)
	usrSvc := user.NewService(conf, nil, usrRepo, emailsvc.NewConsoleServiceMock(conf))
	return subject.NewService(subRepo, tchRepo),
		teacher.NewService(nil, tchRepo, subRepo, clsRepo, usrRepo, usrSvc)
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, subject.NewSubject{Name: "Hisabati", Description: "Mathematics"})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if sub.ID == 0 {
		t.Error("Create() did not assign an ID")
	}
	if !sub.Description.Valid || sub.Description.String != "Mathematics" {
		t.Errorf("Description = %v, want Mathematics", sub.Description)
	}

	// empty description stays null
	sub, err = svc.Create(ctx, subject.NewSubject{Name: "Fizikia"})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if sub.Description.Valid {
		t.Errorf("Description = %v, want null", sub.Description)
	}
}

func TestService_Create_uniqueName(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, subject.NewSubject{Name: "Hisabati"}); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	_, err := svc.Create(ctx, subject.NewSubject{Name: "Hisabati"})
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("Create() error = %v, want *core.ValidationError", err)
	}
	if len(vErr.Fields) == 0 || vErr.Fields[0].Field != "name" {
		t.Errorf("ValidationError fields = %v, want a name error", vErr.Fields)
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, subject.NewSubject{Name: "Hisabati"})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if _, err = svc.Create(ctx, subject.NewSubject{Name: "Fizikia"}); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	// renaming to its own name is not a conflict
	if _, err = svc.Update(ctx, sub.ID, subject.UpdateSubject{Name: null.StringFrom("Hisabati")}); err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	// renaming onto a taken name is
	if _, err = svc.Update(ctx, sub.ID, subject.UpdateSubject{Name: null.StringFrom("Fizikia")}); err == nil {
		t.Error("Update() to a taken name passed, want error")
	}

	// a valid-but-empty description clears it
	sub, err = svc.Update(ctx, sub.ID, subject.UpdateSubject{Description: null.StringFrom("")})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if sub.Description.Valid {
		t.Errorf("Description = %v, want cleared", sub.Description)
	}
}

func TestService_Teachers(t *testing.T) {
	svc, tchSvc := setup(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, subject.NewSubject{Name: "Hisabati"})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	tchr, err := tchSvc.Create(ctx, teacher.NewTeacher{
		NewUser: user.NewUser{
			Username:        "mwalimu",
			Password:        "LocalH0st",
			PasswordConfirm: "LocalH0st",
			Role:            user.RoleTeacher,
			Email:           "mwalimu@test.cd",
			FirstName:       "Jina",
			LastName:        "Langu",
			BirthDate:       "1985-11-02",
		},
		SubjectIDs: []int{sub.ID},
	})
	if err != nil {
		t.Fatalf("teachers.Create() failed, %v", err)
	}

	teachers, err := svc.Teachers(ctx, sub.ID)
	if err != nil {
		t.Fatalf("Teachers() failed, %v", err)
	}
	if len(teachers) != 1 || teachers[0].UserID != tchr.UserID {
		t.Errorf("Teachers() = %v, want [%d]", teachers, tchr.UserID)
	}
}

func TestService_Delete(t *testing.T) {
	svc, tchSvc := setup(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, subject.NewSubject{Name: "Hisabati"})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	tchr, err := tchSvc.Create(ctx, teacher.NewTeacher{
		NewUser: user.NewUser{
			Username:        "mwalimu",
			Password:        "LocalH0st",
			PasswordConfirm: "LocalH0st",
			Role:            user.RoleTeacher,
			Email:           "mwalimu@test.cd",
			FirstName:       "Jina",
			LastName:        "Langu",
			BirthDate:       "1985-11-02",
		},
		SubjectIDs: []int{sub.ID},
	})
	if err != nil {
		t.Fatalf("teachers.Create() failed, %v", err)
	}

	if err = svc.Delete(ctx, sub.ID); err != nil {
		t.Fatalf("Delete() failed, %v", err)
	}
	if _, err = svc.GetByID(ctx, sub.ID); err != subject.ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}

	// teacher associations are dropped with the subject
	tchr, err = tchSvc.GetByID(ctx, tchr.UserID)
	if err != nil {
		t.Fatalf("teachers.GetByID() failed, %v", err)
	}
	if len(tchr.SubjectIDs) != 0 {
		t.Errorf("teacher SubjectIDs = %v, want empty", tchr.SubjectIDs)
	}
}

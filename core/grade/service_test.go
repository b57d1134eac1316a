package grade_test

import (
	"context"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/grade"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
	emailsvc "github.com/tkimaro/shule/services/email"
	inmemdb "github.com/tkimaro/shule/storage/database/inmem"
)

type fixtures struct {
	svc     grade.Service
	student student.Student
	subject subject.Subject
	teacher teacher.Teacher

	subSvc subject.Service
}

func setup(t *testing.T) fixtures {
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

	ctx := context.Background()
	newUsr := func(uname, role string) user.NewUser {
		return user.NewUser{
			Username:        uname,
			Password:        "LocalH0st",
			PasswordConfirm: "LocalH0st",
			Role:            role,
			Email:           uname + "@test.cd",
			FirstName:       "Jina",
			LastName:        "Langu",
			BirthDate:       "2007-09-09",
		}
	}

	std, err := student.NewService(nil, stdRepo, clsRepo, usrRepo, usrSvc).
		Create(ctx, student.NewStudent{NewUser: newUsr("awe", user.RoleStudent)})
	if err != nil {
		t.Fatalf("students.Create() failed, %v", err)
	}
	subSvc := subject.NewService(subRepo, tchRepo)
	sub, err := subSvc.Create(ctx, subject.NewSubject{Name: "Hisabati"})
	if err != nil {
		t.Fatalf("subjects.Create() failed, %v", err)
	}
	tchr, err := teacher.NewService(nil, tchRepo, subRepo, clsRepo, usrRepo, usrSvc).
		Create(ctx, teacher.NewTeacher{NewUser: newUsr("mwalimu", user.RoleTeacher), SubjectIDs: []int{sub.ID}})
	if err != nil {
		t.Fatalf("teachers.Create() failed, %v", err)
	}

	return fixtures{
		svc:     grade.NewService(inmemdb.NewGradeRepository(db), stdRepo, subRepo, tchRepo),
		student: std,
		subject: sub,
		teacher: tchr,
		subSvc:  subSvc,
	}
}

func (f fixtures) newGrade(value float64) grade.NewGrade {
	return grade.NewGrade{
		StudentID: f.student.UserID,
		SubjectID: f.subject.ID,
		TeacherID: f.teacher.UserID,
		Value:     value,
	}
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ng := f.newGrade(72.5)
	ng.Comment = "vizuri sana"
	grd, err := f.svc.Create(ctx, ng)
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if grd.ID == 0 {
		t.Error("Create() did not assign an ID")
	}
	if grd.Value != 72.5 {
		t.Errorf("Value = %v, want 72.5", grd.Value)
	}
	if !grd.Comment.Valid || grd.Comment.String != "vizuri sana" {
		t.Errorf("Comment = %v, want vizuri sana", grd.Comment)
	}
	if grd.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestService_Create_validatesReferences(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		ng      grade.NewGrade
		wantErr error
	}{
		{name: "unknown student", ng: grade.NewGrade{StudentID: 404, SubjectID: f.subject.ID, TeacherID: f.teacher.UserID, Value: 50}, wantErr: student.ErrNotFound},
		{name: "unknown subject", ng: grade.NewGrade{StudentID: f.student.UserID, SubjectID: 404, TeacherID: f.teacher.UserID, Value: 50}, wantErr: subject.ErrNotFound},
		{name: "unknown teacher", ng: grade.NewGrade{StudentID: f.student.UserID, SubjectID: f.subject.ID, TeacherID: 404, Value: 50}, wantErr: teacher.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, tt.ng); err != tt.wantErr {
				t.Errorf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_Update_referencesImmutable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	grd, err := f.svc.Create(ctx, f.newGrade(60))
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	updated, err := f.svc.Update(ctx, grd.ID, grade.UpdateGrade{Value: null.Float64From(85)})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if updated.Value != 85 {
		t.Errorf("Value = %v, want 85", updated.Value)
	}
	if updated.StudentID != grd.StudentID || updated.SubjectID != grd.SubjectID || updated.TeacherID != grd.TeacherID {
		t.Error("references changed on update")
	}
	if !updated.CreatedAt.Equal(grd.CreatedAt) {
		t.Error("CreatedAt changed on update")
	}

	// a valid-but-empty comment clears it
	updated, err = f.svc.Update(ctx, grd.ID, grade.UpdateGrade{Comment: null.StringFrom("")})
	if err != nil {
		t.Fatalf("Update() failed, %v", err)
	}
	if updated.Comment.Valid {
		t.Errorf("Comment = %v, want cleared", updated.Comment)
	}
}

func TestService_Averages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// no grades: invalid average, never a zero mark
	avg, err := f.svc.AverageByStudent(ctx, f.student.UserID)
	if err != nil {
		t.Fatalf("AverageByStudent() failed, %v", err)
	}
	if avg.Valid {
		t.Errorf("AverageByStudent() = %v, want invalid", avg)
	}

	for _, v := range []float64{60, 70, 80} {
		if _, err = f.svc.Create(ctx, f.newGrade(v)); err != nil {
			t.Fatalf("Create() failed, %v", err)
		}
	}

	avg, err = f.svc.AverageByStudent(ctx, f.student.UserID)
	if err != nil {
		t.Fatalf("AverageByStudent() failed, %v", err)
	}
	if !avg.Valid || avg.Float64 != 70 {
		t.Errorf("AverageByStudent() = %v, want 70", avg)
	}

	avg, err = f.svc.AverageBySubject(ctx, f.subject.ID)
	if err != nil {
		t.Fatalf("AverageBySubject() failed, %v", err)
	}
	if !avg.Valid || avg.Float64 != 70 {
		t.Errorf("AverageBySubject() = %v, want 70", avg)
	}
}

func TestService_StudentSubjectSummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other, err := f.subSvc.Create(ctx, subject.NewSubject{Name: "Fizikia"})
	if err != nil {
		t.Fatalf("subjects.Create() failed, %v", err)
	}

	for _, v := range []float64{60, 80} {
		if _, err = f.svc.Create(ctx, f.newGrade(v)); err != nil {
			t.Fatalf("Create() failed, %v", err)
		}
	}
	ng := f.newGrade(90)
	ng.SubjectID = other.ID
	if _, err = f.svc.Create(ctx, ng); err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	summaries, err := f.svc.StudentSubjectSummary(ctx, f.student.UserID)
	if err != nil {
		t.Fatalf("StudentSubjectSummary() failed, %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("StudentSubjectSummary() returned %d subjects, want 2", len(summaries))
	}

	byID := make(map[int]grade.SubjectSummary, len(summaries))
	for _, s := range summaries {
		byID[s.SubjectID] = s
	}
	hisabati := byID[f.subject.ID]
	if hisabati.SubjectName != "Hisabati" || len(hisabati.Grades) != 2 || !hisabati.Average.Valid || hisabati.Average.Float64 != 70 {
		t.Errorf("summary = %+v, want 2 grades averaging 70", hisabati)
	}
	fizikia := byID[other.ID]
	if fizikia.SubjectName != "Fizikia" || len(fizikia.Grades) != 1 || fizikia.Average.Float64 != 90 {
		t.Errorf("summary = %+v, want 1 grade averaging 90", fizikia)
	}
}

func TestService_QueryRecent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, v := range []float64{10, 20, 30, 40} {
		if _, err := f.svc.Create(ctx, f.newGrade(v)); err != nil {
			t.Fatalf("Create() failed, %v", err)
		}
	}

	grades, err := f.svc.QueryRecent(ctx, 2)
	if err != nil {
		t.Fatalf("QueryRecent() failed, %v", err)
	}
	if len(grades) != 2 {
		t.Fatalf("QueryRecent(2) returned %d grades, want 2", len(grades))
	}
	// newest first
	if grades[0].Value != 40 || grades[1].Value != 30 {
		t.Errorf("QueryRecent(2) = [%v %v], want [40 30]", grades[0].Value, grades[1].Value)
	}
}

func TestService_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	grd, err := f.svc.Create(ctx, f.newGrade(55))
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}
	if err = f.svc.Delete(ctx, grd.ID); err != nil {
		t.Fatalf("Delete() failed, %v", err)
	}
	if _, err = f.svc.GetByID(ctx, grd.ID); err != grade.ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err = f.svc.Delete(ctx, grd.ID); err != grade.ErrNotFound {
		t.Errorf("Delete() repeat error = %v, want ErrNotFound", err)
	}
}

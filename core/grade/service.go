package grade

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
)

var ErrNotFound = errors.New("grade not found")

// nowFunc facilitates mocking in tests
var nowFunc = time.Now

type (
	Repository interface {
		CreateGrade(ctx context.Context, grd Grade, exec ...core.DBExecutor) (Grade, error)
		GetGradeByID(ctx context.Context, id int, exec ...core.DBExecutor) (Grade, error)
		QueryAllGrades(ctx context.Context, exec ...core.DBExecutor) ([]Grade, error)
		QueryGradesByStudentID(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]Grade, error)
		QueryGradesBySubjectID(ctx context.Context, subjectID int, exec ...core.DBExecutor) ([]Grade, error)
		QueryGradesByTeacherID(ctx context.Context, teacherID int, exec ...core.DBExecutor) ([]Grade, error)
		QueryGradesByStudentAndSubject(ctx context.Context, studentID, subjectID int, exec ...core.DBExecutor) ([]Grade, error)
		// QueryRecentGrades returns at most limit grades, newest first.
		QueryRecentGrades(ctx context.Context, limit int, exec ...core.DBExecutor) ([]Grade, error)
		UpdateGrade(ctx context.Context, grd Grade, exec ...core.DBExecutor) (Grade, error)
		DeleteGrade(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, ng NewGrade) (Grade, error)
		GetByID(ctx context.Context, id int) (Grade, error)
		QueryAll(ctx context.Context) ([]Grade, error)
		QueryByStudent(ctx context.Context, studentID int) ([]Grade, error)
		QueryBySubject(ctx context.Context, subjectID int) ([]Grade, error)
		QueryByTeacher(ctx context.Context, teacherID int) ([]Grade, error)
		QueryByStudentAndSubject(ctx context.Context, studentID, subjectID int) ([]Grade, error)
		QueryRecent(ctx context.Context, limit int) ([]Grade, error)
		Update(ctx context.Context, id int, ug UpdateGrade) (Grade, error)
		Delete(ctx context.Context, id int) error

		// AverageByStudent and AverageBySubject return an invalid
		// null.Float64 when no grades exist, never a zero mark.
		AverageByStudent(ctx context.Context, studentID int) (null.Float64, error)
		AverageBySubject(ctx context.Context, subjectID int) (null.Float64, error)
		StudentSubjectSummary(ctx context.Context, studentID int) ([]SubjectSummary, error)
	}

	service struct {
		repo    Repository
		stdRepo student.Repository
		subRepo subject.Repository
		tchRepo teacher.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, stdRepo student.Repository, subRepo subject.Repository, tchRepo teacher.Repository) Service {
	return &service{
		repo:    repo,
		stdRepo: stdRepo,
		subRepo: subRepo,
		tchRepo: tchRepo,
	}
}

// Create validates the student, subject and teacher references before
// inserting.
func (svc *service) Create(ctx context.Context, ng NewGrade) (Grade, error) {
	if _, err := svc.stdRepo.GetStudentByID(ctx, ng.StudentID); err != nil {
		return Grade{}, err
	}
	if _, err := svc.subRepo.GetSubjectByID(ctx, ng.SubjectID); err != nil {
		return Grade{}, err
	}
	if _, err := svc.tchRepo.GetTeacherByID(ctx, ng.TeacherID); err != nil {
		return Grade{}, err
	}
	grd := Grade{
		StudentID: ng.StudentID,
		SubjectID: ng.SubjectID,
		TeacherID: ng.TeacherID,
		Value:     ng.Value,
		Comment:   null.NewString(ng.Comment, ng.Comment != ""),
		CreatedAt: nowFunc().UTC(),
	}
	return svc.repo.CreateGrade(ctx, grd)
}

func (svc *service) GetByID(ctx context.Context, id int) (Grade, error) {
	return svc.repo.GetGradeByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Grade, error) {
	return svc.repo.QueryAllGrades(ctx)
}

func (svc *service) QueryByStudent(ctx context.Context, studentID int) ([]Grade, error) {
	return svc.repo.QueryGradesByStudentID(ctx, studentID)
}

func (svc *service) QueryBySubject(ctx context.Context, subjectID int) ([]Grade, error) {
	return svc.repo.QueryGradesBySubjectID(ctx, subjectID)
}

func (svc *service) QueryByTeacher(ctx context.Context, teacherID int) ([]Grade, error) {
	return svc.repo.QueryGradesByTeacherID(ctx, teacherID)
}

func (svc *service) QueryByStudentAndSubject(ctx context.Context, studentID, subjectID int) ([]Grade, error) {
	return svc.repo.QueryGradesByStudentAndSubject(ctx, studentID, subjectID)
}

func (svc *service) QueryRecent(ctx context.Context, limit int) ([]Grade, error) {
	return svc.repo.QueryRecentGrades(ctx, limit)
}

func (svc *service) Update(ctx context.Context, id int, ug UpdateGrade) (Grade, error) {
	grd, err := svc.repo.GetGradeByID(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	ug.Apply(&grd)
	return svc.repo.UpdateGrade(ctx, grd)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetGradeByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteGrade(ctx, id)
}

func (svc *service) AverageByStudent(ctx context.Context, studentID int) (null.Float64, error) {
	grades, err := svc.repo.QueryGradesByStudentID(ctx, studentID)
	if err != nil {
		return null.Float64{}, err
	}
	return average(grades), nil
}

func (svc *service) AverageBySubject(ctx context.Context, subjectID int) (null.Float64, error) {
	grades, err := svc.repo.QueryGradesBySubjectID(ctx, subjectID)
	if err != nil {
		return null.Float64{}, err
	}
	return average(grades), nil
}

// StudentSubjectSummary groups the student's grades per subject, resolving
// subject names. Subjects the student has no grades in are omitted.
func (svc *service) StudentSubjectSummary(ctx context.Context, studentID int) ([]SubjectSummary, error) {
	if _, err := svc.stdRepo.GetStudentByID(ctx, studentID); err != nil {
		return nil, err
	}
	grades, err := svc.repo.QueryGradesByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	bySubject := make(map[int][]Grade)
	order := make([]int, 0) // first-seen subject order
	for _, grd := range grades {
		if _, ok := bySubject[grd.SubjectID]; !ok {
			order = append(order, grd.SubjectID)
		}
		bySubject[grd.SubjectID] = append(bySubject[grd.SubjectID], grd)
	}

	summaries := make([]SubjectSummary, 0, len(order))
	for _, subID := range order {
		sub, err := svc.subRepo.GetSubjectByID(ctx, subID)
		if err != nil {
			return nil, err
		}
		subGrades := bySubject[subID]
		summaries = append(summaries, SubjectSummary{
			SubjectID:   subID,
			SubjectName: sub.Name,
			Grades:      subGrades,
			Average:     average(subGrades),
		})
	}
	return summaries, nil
}

func average(grades []Grade) null.Float64 {
	if len(grades) == 0 {
		return null.Float64{}
	}
	var sum float64
	for _, grd := range grades {
		sum += grd.Value
	}
	return null.Float64From(sum / float64(len(grades)))
}

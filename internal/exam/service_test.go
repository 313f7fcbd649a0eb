package exam

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/adomako/registrar/internal/model"
	"github.com/adomako/registrar/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.SeedAcademics(); err != nil {
		t.Fatalf("seed academics: %v", err)
	}
	return NewService(s), s
}

func levelByRank(t *testing.T, s *store.Store, rank int) model.ClassLevel {
	t.Helper()
	levels, err := s.ListClassLevels()
	if err != nil {
		t.Fatalf("list class levels: %v", err)
	}
	for _, l := range levels {
		if l.Rank == rank {
			return l
		}
	}
	t.Fatalf("no class level with rank %d", rank)
	return model.ClassLevel{}
}

func termByOrdinal(t *testing.T, s *store.Store, ordinal int) model.AcademicTerm {
	t.Helper()
	terms, err := s.ListAcademicTerms()
	if err != nil {
		t.Fatalf("list academic terms: %v", err)
	}
	for _, tm := range terms {
		if tm.Ordinal == ordinal {
			return tm
		}
	}
	t.Fatalf("no academic term with ordinal %d", ordinal)
	return model.AcademicTerm{}
}

var seededStudents int

func seedStudent(t *testing.T, s *store.Store, levelID int64) model.Student {
	t.Helper()
	seededStudents++
	userID, err := s.CreateUser(model.User{
		Username:     fmt.Sprintf("student%d", seededStudents),
		DisplayName:  "Test Student",
		PasswordHash: "x",
		Role:         model.UserRoleStudent,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	id, err := s.CreateStudent(model.Student{
		UserID:         userID,
		AdmissionNo:    fmt.Sprintf("STU%04d", seededStudents),
		Name:           "Test Student",
		CurrentLevelID: levelID,
	})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	st, err := s.GetStudent(id)
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	return st
}

// seedExam creates an exam for the given term with one question per
// option in correct; the correct answer for question i is correct[i].
func seedExam(t *testing.T, s *store.Store, levelID, termID int64, correct []model.Option) model.Exam {
	t.Helper()
	id, err := s.CreateExam(model.Exam{
		Name:           "Midterm",
		Subject:        "Mathematics",
		ClassLevelID:   levelID,
		AcademicTermID: termID,
	})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	for i, c := range correct {
		if _, err := s.InsertQuestion(model.Question{
			ExamID:        id,
			Text:          fmt.Sprintf("Question %d", i+1),
			OptionA:       "a",
			OptionB:       "b",
			OptionC:       "c",
			OptionD:       "d",
			CorrectOption: c,
		}); err != nil {
			t.Fatalf("insert question: %v", err)
		}
	}
	ex, err := s.GetExam(id)
	if err != nil {
		t.Fatalf("get exam: %v", err)
	}
	return ex
}

func TestSubmitScoresAndPromotes(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	l2 := levelByRank(t, s, 2)
	term1 := termByOrdinal(t, s, 1)
	student := seedStudent(t, s, l1.ID)
	ex := seedExam(t, s, l1.ID, term1.ID, []model.Option{"A", "B", "C", "D", "A"})

	// 3 of 5 correct: grade 60, Pass, Good.
	result, err := svc.Submit(ctx, student.ID, ex.ID, []model.Option{"A", "B", "C", "A", "B"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Score != 3 || result.Grade != 60 {
		t.Errorf("score/grade = %d/%f, want 3/60", result.Score, result.Grade)
	}
	if result.Status != model.StatusPass || result.Remark != model.RemarkGood {
		t.Errorf("status/remark = %q/%q, want Pass/Good", result.Status, result.Remark)
	}
	if result.Published {
		t.Error("fresh result must not be published")
	}
	if result.ClassLevelID != l1.ID || result.AcademicTermID != term1.ID {
		t.Errorf("result must snapshot the exam's level and term: %+v", result)
	}
	if result.PublicID == "" {
		t.Error("result must carry a public id")
	}

	// Passing a term-1 exam at level 1 promotes to level 2.
	student, err = s.GetStudent(student.ID)
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	if student.CurrentLevelID != l2.ID {
		t.Errorf("current level = %d, want %d", student.CurrentLevelID, l2.ID)
	}
	if student.Graduated {
		t.Error("student must not be graduated")
	}
	history, err := s.LevelHistory(student.ID)
	if err != nil {
		t.Fatalf("level history: %v", err)
	}
	if len(history) != 2 || history[1].LevelID != l2.ID {
		t.Errorf("level history = %+v, want admission level then level 2", history)
	}
}

func TestSubmitTermMismatchNoPromotion(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	term2 := termByOrdinal(t, s, 2)
	student := seedStudent(t, s, l1.ID)
	ex := seedExam(t, s, l1.ID, term2.ID, []model.Option{"A", "B"})

	result, err := svc.Submit(ctx, student.ID, ex.ID, []model.Option{"A", "B"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Status != model.StatusPass {
		t.Fatalf("expected Pass, got %q", result.Status)
	}

	student, _ = s.GetStudent(student.ID)
	if student.CurrentLevelID != l1.ID {
		t.Errorf("term-mismatched pass must not promote; level = %d", student.CurrentLevelID)
	}
	history, _ := s.LevelHistory(student.ID)
	if len(history) != 1 {
		t.Errorf("expected unchanged level history, got %+v", history)
	}
}

func TestSubmitFailNoPromotion(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	term1 := termByOrdinal(t, s, 1)
	student := seedStudent(t, s, l1.ID)
	ex := seedExam(t, s, l1.ID, term1.ID, []model.Option{"A", "B", "C"})

	result, err := svc.Submit(ctx, student.ID, ex.ID, []model.Option{"B", "C", "D"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Status != model.StatusFail || result.Remark != model.RemarkPoor {
		t.Errorf("expected Fail/Poor, got %q/%q", result.Status, result.Remark)
	}

	student, _ = s.GetStudent(student.ID)
	if student.CurrentLevelID != l1.ID {
		t.Error("failing result must not promote")
	}
}

func TestSubmitIdempotency(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	term1 := termByOrdinal(t, s, 1)
	student := seedStudent(t, s, l1.ID)
	ex := seedExam(t, s, l1.ID, term1.ID, []model.Option{"A", "B"})

	answers := []model.Option{"A", "B"}
	if _, err := svc.Submit(ctx, student.ID, ex.ID, answers); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	after, _ := s.GetStudent(student.ID)

	_, err := svc.Submit(ctx, student.ID, ex.ID, answers)
	if !errors.Is(err, model.ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}

	results, err := s.ListResultsForStudent(student.ID, false)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(results))
	}

	// The second call must not move the student again.
	again, _ := s.GetStudent(student.ID)
	if again.CurrentLevelID != after.CurrentLevelID || again.Graduated != after.Graduated {
		t.Error("duplicate submission mutated the student")
	}
	history, _ := s.LevelHistory(student.ID)
	if len(history) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(history))
	}
}

func TestSubmitIncomplete(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	term1 := termByOrdinal(t, s, 1)
	student := seedStudent(t, s, l1.ID)
	ex := seedExam(t, s, l1.ID, term1.ID, []model.Option{"A", "B", "C", "D", "A"})

	_, err := svc.Submit(ctx, student.ID, ex.ID, []model.Option{"A", "B", "C", "D"})
	if !errors.Is(err, model.ErrIncompleteSubmission) {
		t.Fatalf("expected ErrIncompleteSubmission, got %v", err)
	}

	results, _ := s.ListResultsForStudent(student.ID, false)
	if len(results) != 0 {
		t.Error("incomplete submission must not create a result")
	}
}

func TestSubmitForbidden(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	term1 := termByOrdinal(t, s, 1)
	ex := seedExam(t, s, l1.ID, term1.ID, []model.Option{"A"})

	tests := []struct {
		name string
		bar  func(id int64) error
	}{
		{"suspended", func(id int64) error { return s.SetStudentSuspended(id, true) }},
		{"expelled", func(id int64) error { return s.SetStudentExpelled(id, true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := seedStudent(t, s, l1.ID)
			if err := tt.bar(student.ID); err != nil {
				t.Fatalf("bar student: %v", err)
			}
			_, err := svc.Submit(ctx, student.ID, ex.ID, []model.Option{"A"})
			if !errors.Is(err, model.ErrSubmissionForbidden) {
				t.Fatalf("expected ErrSubmissionForbidden, got %v", err)
			}
			results, _ := s.ListResultsForStudent(student.ID, false)
			if len(results) != 0 {
				t.Error("forbidden submission must not create a result")
			}
		})
	}
}

func TestSubmitNotFoundGuards(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	term1 := termByOrdinal(t, s, 1)
	ex := seedExam(t, s, l1.ID, term1.ID, []model.Option{"A"})

	_, err := svc.Submit(ctx, 9999, ex.ID, []model.Option{"A"})
	if !errors.Is(err, model.ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}

	student := seedStudent(t, s, l1.ID)
	_, err = svc.Submit(ctx, student.ID, 9999, []model.Option{"A"})
	if !errors.Is(err, model.ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
}

func TestGraduationIsTerminal(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l4 := levelByRank(t, s, 4)
	term4 := termByOrdinal(t, s, 4)
	student := seedStudent(t, s, l4.ID)
	ex := seedExam(t, s, l4.ID, term4.ID, []model.Option{"A", "B"})

	if _, err := svc.Submit(ctx, student.ID, ex.ID, []model.Option{"A", "B"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	student, _ = s.GetStudent(student.ID)
	if !student.Graduated {
		t.Fatal("expected student to graduate")
	}
	if student.GraduatedAt == nil {
		t.Error("expected graduation timestamp")
	}
	if student.CurrentLevelID != l4.ID {
		t.Error("graduation must not change the current level")
	}

	// Graduated is terminal: no further submissions.
	term1 := termByOrdinal(t, s, 1)
	other := seedExam(t, s, l4.ID, term1.ID, []model.Option{"A"})
	_, err := svc.Submit(ctx, student.ID, other.ID, []model.Option{"A"})
	if !errors.Is(err, model.ErrSubmissionForbidden) {
		t.Fatalf("expected ErrSubmissionForbidden for graduate, got %v", err)
	}
}

func TestPublishGate(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	term1 := termByOrdinal(t, s, 1)
	student := seedStudent(t, s, l1.ID)
	ex := seedExam(t, s, l1.ID, term1.ID, []model.Option{"A", "B"})

	result, err := svc.Submit(ctx, student.ID, ex.ID, []model.Option{"A", "B"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = svc.ResultForStudent(ctx, student.ID, result.ID)
	if !errors.Is(err, model.ErrResultNotAvailable) {
		t.Fatalf("expected ErrResultNotAvailable before publish, got %v", err)
	}

	published, err := svc.SetResultPublished(ctx, result.ID, true)
	if err != nil {
		t.Fatalf("SetResultPublished: %v", err)
	}
	if !published.Published {
		t.Fatal("expected published flag set")
	}

	got, err := svc.ResultForStudent(ctx, student.ID, result.ID)
	if err != nil {
		t.Fatalf("ResultForStudent after publish: %v", err)
	}
	// Publishing must not change scoring data.
	if got.Score != result.Score || got.Grade != result.Grade || got.Status != result.Status || got.Remark != result.Remark {
		t.Errorf("published result differs from original: %+v vs %+v", got, result)
	}
	if len(got.Answers) != 2 {
		t.Errorf("expected 2 answer reviews, got %d", len(got.Answers))
	}

	// Unpublish closes the gate again.
	if _, err := svc.SetResultPublished(ctx, result.ID, false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	_, err = svc.ResultForStudent(ctx, student.ID, result.ID)
	if !errors.Is(err, model.ErrResultNotAvailable) {
		t.Fatalf("expected ErrResultNotAvailable after unpublish, got %v", err)
	}

	// Another student cannot read it at all.
	intruder := seedStudent(t, s, l1.ID)
	_, err = svc.ResultForStudent(ctx, intruder.ID, result.ID)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign result, got %v", err)
	}
}

func TestProfileShowsOnlyPublishedResults(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	l1 := levelByRank(t, s, 1)
	term1 := termByOrdinal(t, s, 1)
	term2 := termByOrdinal(t, s, 2)
	student := seedStudent(t, s, l1.ID)

	ex1 := seedExam(t, s, l1.ID, term2.ID, []model.Option{"A"})
	ex2 := seedExam(t, s, l1.ID, term1.ID, []model.Option{"A"})

	r1, err := svc.Submit(ctx, student.ID, ex1.ID, []model.Option{"A"})
	if err != nil {
		t.Fatalf("Submit ex1: %v", err)
	}
	if _, err := svc.Submit(ctx, student.ID, ex2.ID, []model.Option{"B"}); err != nil {
		t.Fatalf("Submit ex2: %v", err)
	}

	profile, err := svc.Profile(ctx, student.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(profile.Results) != 0 {
		t.Errorf("unpublished results must be hidden, got %d", len(profile.Results))
	}

	if _, err := svc.SetResultPublished(ctx, r1.ID, true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	profile, err = svc.Profile(ctx, student.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(profile.Results) != 1 || profile.Results[0].ID != r1.ID {
		t.Errorf("expected only the published result, got %+v", profile.Results)
	}
	if profile.CurrentLevel.ID != student.CurrentLevelID {
		t.Errorf("profile level mismatch: %+v", profile.CurrentLevel)
	}
}

package exam

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/adomako/registrar/internal/model"
	"github.com/adomako/registrar/internal/store"
)

// Service orchestrates exam submissions: guard checks, scoring, the
// result ledger and class-level progression. It expects an already
// authenticated student identity; credentials are the HTTP layer's
// concern.
type Service struct {
	store *store.Store
}

// NewService creates a submission service on top of the store.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Submit grades one student's answers for one exam and persists the
// outcome. Guards run strictly in order and strictly before any mutation:
// student exists, exam exists, answer count matches, no prior result,
// student not barred. The resulting write — result record, answer
// snapshot, level history and graduation flag — commits atomically in one
// store transaction, which also re-checks the barred flags and owns the
// authoritative duplicate check.
func (s *Service) Submit(ctx context.Context, studentID, examID int64, answers []model.Option) (model.ExamResult, error) {
	student, err := s.store.GetStudent(studentID)
	if err != nil {
		return model.ExamResult{}, err
	}

	ex, questions, err := s.store.GetExamWithQuestions(examID)
	if err != nil {
		return model.ExamResult{}, err
	}

	if len(answers) != len(questions) {
		return model.ExamResult{}, model.ErrIncompleteSubmission
	}

	taken, err := s.store.HasResult(studentID, examID)
	if err != nil {
		return model.ExamResult{}, fmt.Errorf("check prior result: %w", err)
	}
	if taken {
		return model.ExamResult{}, model.ErrDuplicateSubmission
	}

	if student.Barred() {
		return model.ExamResult{}, model.ErrSubmissionForbidden
	}

	outcome, err := Score(ex, questions, answers)
	if err != nil {
		return model.ExamResult{}, err
	}

	prog, err := s.progressionFor(student, ex, outcome.Status)
	if err != nil {
		return model.ExamResult{}, err
	}

	result := model.ExamResult{
		PublicID:       uuid.NewString(),
		StudentID:      student.ID,
		ExamID:         ex.ID,
		Score:          outcome.Score,
		Grade:          outcome.Grade,
		PassMark:       ex.PassMark,
		Status:         outcome.Status,
		Remark:         outcome.Remark,
		ClassLevelID:   ex.ClassLevelID,
		AcademicTermID: ex.AcademicTermID,
		AcademicYearID: ex.AcademicYearID,
		Answers:        outcome.Answers,
	}

	result, err = s.store.RecordSubmission(result, prog)
	if err != nil {
		return model.ExamResult{}, err
	}
	slog.Info("exam submitted",
		"student_id", student.ID,
		"exam_id", ex.ID,
		"score", result.Score,
		"grade", result.Grade,
		"status", result.Status,
	)
	return result, nil
}

// progressionFor resolves the ladder transition for a result. Failing
// results never move a student.
func (s *Service) progressionFor(student model.Student, ex model.Exam, status model.ResultStatus) (store.ProgressionUpdate, error) {
	if status != model.StatusPass {
		return store.ProgressionUpdate{}, nil
	}

	term, err := s.store.GetAcademicTerm(ex.AcademicTermID)
	if err != nil {
		return store.ProgressionUpdate{}, fmt.Errorf("resolve academic term: %w", err)
	}
	levels, err := s.store.ListClassLevels()
	if err != nil {
		return store.ProgressionUpdate{}, fmt.Errorf("list class levels: %w", err)
	}

	tr := NewLadder(levels).Next(student.CurrentLevelID, term.Ordinal)
	var prog store.ProgressionUpdate
	if tr.NextLevel != nil {
		prog.NewLevelID = tr.NextLevel.ID
	}
	prog.Graduates = tr.Graduates
	return prog, nil
}

// ResultForStudent returns one of the student's results, gated on the
// publish flag. Ownership is part of the lookup; an unpublished result
// exists but is not available.
func (s *Service) ResultForStudent(ctx context.Context, studentID, resultID int64) (model.ExamResult, error) {
	result, err := s.store.GetResultForStudent(studentID, resultID)
	if err != nil {
		return model.ExamResult{}, err
	}
	if !result.Published {
		return model.ExamResult{}, model.ErrResultNotAvailable
	}
	return result, nil
}

// SetResultPublished toggles result visibility. It never re-scores and
// never re-runs progression.
func (s *Service) SetResultPublished(ctx context.Context, resultID int64, published bool) (model.ExamResult, error) {
	return s.store.SetResultPublished(resultID, published)
}

// Profile assembles a student's view of themselves: current level, level
// history, and only the published results.
func (s *Service) Profile(ctx context.Context, studentID int64) (model.StudentProfile, error) {
	student, err := s.store.GetStudent(studentID)
	if err != nil {
		return model.StudentProfile{}, err
	}
	level, err := s.store.GetClassLevel(student.CurrentLevelID)
	if err != nil {
		return model.StudentProfile{}, err
	}
	history, err := s.store.LevelHistory(studentID)
	if err != nil {
		return model.StudentProfile{}, err
	}
	results, err := s.store.ListResultsForStudent(studentID, true)
	if err != nil {
		return model.StudentProfile{}, err
	}
	return model.StudentProfile{
		Student:      student,
		CurrentLevel: level,
		LevelHistory: history,
		Results:      results,
	}, nil
}

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/adomako/registrar/internal/model"
)

const resultCols = `id, public_id, student_id, exam_id, score, grade, pass_mark,
	status, remark, class_level_id, academic_term_id, academic_year_id, published, created_at`

func scanResult(row interface{ Scan(...any) error }) (model.ExamResult, error) {
	var r model.ExamResult
	err := row.Scan(
		&r.ID, &r.PublicID, &r.StudentID, &r.ExamID, &r.Score, &r.Grade, &r.PassMark,
		&r.Status, &r.Remark, &r.ClassLevelID, &r.AcademicTermID, &r.AcademicYearID,
		&r.Published, &r.CreatedAt,
	)
	return r, err
}

// ProgressionUpdate is the student mutation that accompanies a passing
// result. A zero NewLevelID means no level change.
type ProgressionUpdate struct {
	NewLevelID int64
	Graduates  bool
}

// HasResult reports whether a result already exists for the (student, exam)
// pair. This is the friendly-path duplicate check; the unique index inside
// RecordSubmission is the authoritative one.
func (s *Store) HasResult(studentID, examID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM exam_results WHERE student_id = ? AND exam_id = ?`,
		studentID, examID,
	).Scan(&n)
	return n > 0, err
}

// RecordSubmission persists one exam result together with its per-question
// answers and the progression mutation in a single transaction. The barred
// flags are re-checked inside the transaction so an administrative
// suspension racing the submission still rejects it, and the
// (student, exam) unique index turns a concurrent duplicate insert into
// ErrDuplicateSubmission with no partial write.
func (s *Store) RecordSubmission(res model.ExamResult, prog ProgressionUpdate) (model.ExamResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	var suspended, expelled, graduated bool
	err = tx.QueryRow(
		`SELECT suspended, expelled, graduated FROM students WHERE id = ?`, res.StudentID,
	).Scan(&suspended, &expelled, &graduated)
	if err == sql.ErrNoRows {
		return res, model.ErrStudentNotFound
	}
	if err != nil {
		return res, err
	}
	if suspended || expelled || graduated {
		return res, model.ErrSubmissionForbidden
	}

	now := time.Now()
	insert, err := tx.Exec(
		`INSERT INTO exam_results (public_id, student_id, exam_id, score, grade, pass_mark,
		 status, remark, class_level_id, academic_term_id, academic_year_id, published, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		res.PublicID, res.StudentID, res.ExamID, res.Score, res.Grade, res.PassMark,
		res.Status, res.Remark, res.ClassLevelID, res.AcademicTermID, res.AcademicYearID, now,
	)
	if isUniqueViolation(err) {
		return res, model.ErrDuplicateSubmission
	}
	if err != nil {
		return res, fmt.Errorf("insert result: %w", err)
	}
	res.ID, err = insert.LastInsertId()
	if err != nil {
		return res, err
	}
	res.Published = false
	res.CreatedAt = now

	for _, a := range res.Answers {
		if _, err := tx.Exec(
			`INSERT INTO result_answers (result_id, position, question, correct_option, chosen_option, correct)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			res.ID, a.Position, a.Question, a.CorrectOption, a.ChosenOption, a.Correct,
		); err != nil {
			return res, fmt.Errorf("insert answer %d: %w", a.Position, err)
		}
	}

	if prog.NewLevelID != 0 {
		if _, err := tx.Exec(
			`UPDATE students SET current_level_id = ? WHERE id = ?`,
			prog.NewLevelID, res.StudentID,
		); err != nil {
			return res, fmt.Errorf("update student level: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO student_levels (student_id, level_id, attained_at) VALUES (?, ?, ?)`,
			res.StudentID, prog.NewLevelID, now,
		); err != nil {
			return res, fmt.Errorf("append level history: %w", err)
		}
	}
	if prog.Graduates {
		if _, err := tx.Exec(
			`UPDATE students SET graduated = 1, graduated_at = ? WHERE id = ?`,
			now, res.StudentID,
		); err != nil {
			return res, fmt.Errorf("graduate student: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return res, err
	}
	slog.Info("recorded exam result",
		"result_id", res.ID,
		"student_id", res.StudentID,
		"exam_id", res.ExamID,
		"status", res.Status,
		"new_level_id", prog.NewLevelID,
		"graduates", prog.Graduates,
	)
	return res, nil
}

// GetResult returns a result by row ID, with its answers.
func (s *Store) GetResult(id int64) (model.ExamResult, error) {
	r, err := scanResult(s.db.QueryRow(`SELECT `+resultCols+` FROM exam_results WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return r, model.ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.Answers, err = s.resultAnswers(r.ID)
	return r, err
}

// GetResultByPublicID returns a result by its public identifier.
func (s *Store) GetResultByPublicID(publicID string) (model.ExamResult, error) {
	r, err := scanResult(s.db.QueryRow(`SELECT `+resultCols+` FROM exam_results WHERE public_id = ?`, publicID))
	if err == sql.ErrNoRows {
		return r, model.ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.Answers, err = s.resultAnswers(r.ID)
	return r, err
}

// GetResultForStudent returns a result only when it belongs to the student.
func (s *Store) GetResultForStudent(studentID, resultID int64) (model.ExamResult, error) {
	r, err := scanResult(s.db.QueryRow(
		`SELECT `+resultCols+` FROM exam_results WHERE id = ? AND student_id = ?`,
		resultID, studentID,
	))
	if err == sql.ErrNoRows {
		return r, model.ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.Answers, err = s.resultAnswers(r.ID)
	return r, err
}

// ListResultsForStudent returns a student's results, oldest first,
// optionally restricted to published ones.
func (s *Store) ListResultsForStudent(studentID int64, publishedOnly bool) ([]model.ExamResult, error) {
	query := `SELECT ` + resultCols + ` FROM exam_results WHERE student_id = ?`
	if publishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY id`
	return s.queryResults(query, studentID)
}

// ListResults returns all results, newest first.
func (s *Store) ListResults() ([]model.ExamResult, error) {
	return s.queryResults(`SELECT ` + resultCols + ` FROM exam_results ORDER BY id DESC`)
}

func (s *Store) queryResults(query string, args ...any) ([]model.ExamResult, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ExamResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) resultAnswers(resultID int64) ([]model.AnswerReview, error) {
	rows, err := s.db.Query(
		`SELECT position, question, correct_option, chosen_option, correct
		 FROM result_answers WHERE result_id = ? ORDER BY position`, resultID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var answers []model.AnswerReview
	for rows.Next() {
		var a model.AnswerReview
		if err := rows.Scan(&a.Position, &a.Question, &a.CorrectOption, &a.ChosenOption, &a.Correct); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// SetResultPublished flips the publish gate on a result. It never touches
// scoring data or progression state.
func (s *Store) SetResultPublished(resultID int64, published bool) (model.ExamResult, error) {
	res, err := s.db.Exec(`UPDATE exam_results SET published = ? WHERE id = ?`, published, resultID)
	if err != nil {
		return model.ExamResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.ExamResult{}, err
	}
	if n == 0 {
		return model.ExamResult{}, model.ErrNotFound
	}
	return s.GetResult(resultID)
}

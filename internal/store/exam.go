package store

import (
	"database/sql"
	"time"

	"github.com/adomako/registrar/internal/model"
)

const examCols = `id, name, description, subject, pass_mark, total_mark,
	class_level_id, academic_term_id, academic_year_id, status, created_by, created_at`

func scanExam(row interface{ Scan(...any) error }) (model.Exam, error) {
	var e model.Exam
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Subject, &e.PassMark, &e.TotalMark,
		&e.ClassLevelID, &e.AcademicTermID, &e.AcademicYearID, &e.Status,
		&e.CreatedBy, &e.CreatedAt,
	)
	return e, err
}

// CreateExam inserts an exam in pending status.
func (s *Store) CreateExam(e model.Exam) (int64, error) {
	if e.PassMark == 0 {
		e.PassMark = 50
	}
	if e.TotalMark == 0 {
		e.TotalMark = 100
	}
	res, err := s.db.Exec(
		`INSERT INTO exams (name, description, subject, pass_mark, total_mark,
		 class_level_id, academic_term_id, academic_year_id, status, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)`,
		e.Name, e.Description, e.Subject, e.PassMark, e.TotalMark,
		e.ClassLevelID, e.AcademicTermID, e.AcademicYearID, e.CreatedBy, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetExam returns an exam by ID without its questions.
func (s *Store) GetExam(id int64) (model.Exam, error) {
	e, err := scanExam(s.db.QueryRow(`SELECT `+examCols+` FROM exams WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return e, model.ErrExamNotFound
	}
	return e, err
}

// GetExamWithQuestions returns an exam and its questions in the stable
// exam-defined order (insertion order).
func (s *Store) GetExamWithQuestions(id int64) (model.Exam, []model.Question, error) {
	e, err := s.GetExam(id)
	if err != nil {
		return e, nil, err
	}
	qs, err := s.ListQuestions(id)
	if err != nil {
		return e, nil, err
	}
	return e, qs, nil
}

// ListExams returns all exams, newest first.
func (s *Store) ListExams() ([]model.Exam, error) {
	rows, err := s.db.Query(`SELECT ` + examCols + ` FROM exams ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// SetExamStatus toggles an exam between pending and live.
func (s *Store) SetExamStatus(id int64, status model.ExamStatus) error {
	res, err := s.db.Exec(`UPDATE exams SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrExamNotFound
	}
	return nil
}

// InsertQuestion appends a question to an exam. The exam must exist;
// questions are never removed once added.
func (s *Store) InsertQuestion(q model.Question) (int64, error) {
	if _, err := s.GetExam(q.ExamID); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO questions (exam_id, text, option_a, option_b, option_c, option_d, correct_option, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ExamID, q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.CreatedBy,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListQuestions returns an exam's questions in insertion order.
func (s *Store) ListQuestions(examID int64) ([]model.Question, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_id, text, option_a, option_b, option_c, option_d, correct_option, created_by
		 FROM questions WHERE exam_id = ? ORDER BY id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption, &q.CreatedBy); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

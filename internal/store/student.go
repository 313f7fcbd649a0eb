package store

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/adomako/registrar/internal/model"
)

const studentCols = `id, user_id, admission_no, name, current_level_id,
	academic_year_id, date_admitted, suspended, expelled, graduated, graduated_at`

func scanStudent(row interface{ Scan(...any) error }) (model.Student, error) {
	var st model.Student
	err := row.Scan(
		&st.ID, &st.UserID, &st.AdmissionNo, &st.Name, &st.CurrentLevelID,
		&st.AcademicYearID, &st.DateAdmitted, &st.Suspended, &st.Expelled,
		&st.Graduated, &st.GraduatedAt,
	)
	return st, err
}

// CreateStudent inserts a student and the first entry of their level
// history in one transaction.
func (s *Store) CreateStudent(st model.Student) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := insertStudent(tx, st)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Info("created student", "id", id, "admission_no", st.AdmissionNo)
	return id, nil
}

// CreateStudentAccount creates the login account and the student record in
// one transaction: a failed student insert must not leave an orphan login
// behind.
func (s *Store) CreateStudentAccount(u model.User, st model.Student) (model.Student, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Student{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO users (username, display_name, password_hash, role, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.DisplayName, u.PasswordHash, u.Role, u.Active, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return model.Student{}, err
	}
	st.UserID, err = res.LastInsertId()
	if err != nil {
		return model.Student{}, err
	}

	id, err := insertStudent(tx, st)
	if err != nil {
		return model.Student{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Student{}, err
	}
	slog.Info("created student account", "id", id, "username", u.Username, "admission_no", st.AdmissionNo)
	return s.GetStudent(id)
}

func insertStudent(tx *sql.Tx, st model.Student) (int64, error) {
	now := time.Now()
	if st.DateAdmitted.IsZero() {
		st.DateAdmitted = now
	}
	res, err := tx.Exec(
		`INSERT INTO students (user_id, admission_no, name, current_level_id, academic_year_id, date_admitted)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.UserID, st.AdmissionNo, st.Name, st.CurrentLevelID, st.AcademicYearID, st.DateAdmitted,
	)
	if err != nil {
		slog.Error("failed to create student", "admission_no", st.AdmissionNo, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		`INSERT INTO student_levels (student_id, level_id, attained_at) VALUES (?, ?, ?)`,
		id, st.CurrentLevelID, now,
	); err != nil {
		return 0, err
	}
	return id, nil
}

// GetStudent returns a student by ID.
func (s *Store) GetStudent(id int64) (model.Student, error) {
	st, err := scanStudent(s.db.QueryRow(
		`SELECT `+studentCols+` FROM students WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return st, model.ErrStudentNotFound
	}
	return st, err
}

// GetStudentByUserID returns the student linked to a login account.
func (s *Store) GetStudentByUserID(userID int64) (model.Student, error) {
	st, err := scanStudent(s.db.QueryRow(
		`SELECT `+studentCols+` FROM students WHERE user_id = ?`, userID,
	))
	if err == sql.ErrNoRows {
		return st, model.ErrStudentNotFound
	}
	return st, err
}

// ListStudents returns all students ordered by admission number.
func (s *Store) ListStudents() ([]model.Student, error) {
	rows, err := s.db.Query(`SELECT ` + studentCols + ` FROM students ORDER BY admission_no`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// SetStudentSuspended sets the suspended flag.
func (s *Store) SetStudentSuspended(id int64, suspended bool) error {
	return s.setStudentFlag(id, "suspended", suspended)
}

// SetStudentExpelled sets the expelled flag.
func (s *Store) SetStudentExpelled(id int64, expelled bool) error {
	return s.setStudentFlag(id, "expelled", expelled)
}

func (s *Store) setStudentFlag(id int64, column string, value bool) error {
	res, err := s.db.Exec(`UPDATE students SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrStudentNotFound
	}
	return nil
}

// LevelHistory returns a student's attained class levels, oldest first.
func (s *Store) LevelHistory(studentID int64) ([]model.LevelHistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT sl.level_id, cl.name, sl.attained_at
		 FROM student_levels sl
		 JOIN class_levels cl ON cl.id = sl.level_id
		 WHERE sl.student_id = ?
		 ORDER BY sl.id`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []model.LevelHistoryEntry
	for rows.Next() {
		var e model.LevelHistoryEntry
		if err := rows.Scan(&e.LevelID, &e.LevelName, &e.AttainedAt); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

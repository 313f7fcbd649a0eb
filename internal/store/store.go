package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS academic_years (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		from_year INTEGER NOT NULL,
		to_year INTEGER NOT NULL,
		created_by INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS academic_terms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		ordinal INTEGER NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS class_levels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		rank INTEGER NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS students (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		admission_no TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		current_level_id INTEGER NOT NULL,
		academic_year_id INTEGER NOT NULL DEFAULT 0,
		date_admitted DATETIME NOT NULL,
		suspended INTEGER NOT NULL DEFAULT 0,
		expelled INTEGER NOT NULL DEFAULT 0,
		graduated INTEGER NOT NULL DEFAULT 0,
		graduated_at DATETIME,
		FOREIGN KEY (user_id) REFERENCES users(id),
		FOREIGN KEY (current_level_id) REFERENCES class_levels(id)
	);

	CREATE TABLE IF NOT EXISTS student_levels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		level_id INTEGER NOT NULL,
		attained_at DATETIME NOT NULL,
		FOREIGN KEY (student_id) REFERENCES students(id),
		FOREIGN KEY (level_id) REFERENCES class_levels(id)
	);

	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		pass_mark INTEGER NOT NULL DEFAULT 50,
		total_mark INTEGER NOT NULL DEFAULT 100,
		class_level_id INTEGER NOT NULL,
		academic_term_id INTEGER NOT NULL,
		academic_year_id INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		created_by INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (class_level_id) REFERENCES class_levels(id),
		FOREIGN KEY (academic_term_id) REFERENCES academic_terms(id)
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL,
		text TEXT NOT NULL,
		option_a TEXT NOT NULL,
		option_b TEXT NOT NULL,
		option_c TEXT NOT NULL,
		option_d TEXT NOT NULL,
		correct_option TEXT NOT NULL,
		created_by INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (exam_id) REFERENCES exams(id)
	);

	CREATE TABLE IF NOT EXISTS exam_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT NOT NULL UNIQUE,
		student_id INTEGER NOT NULL,
		exam_id INTEGER NOT NULL,
		score INTEGER NOT NULL,
		grade REAL NOT NULL,
		pass_mark INTEGER NOT NULL DEFAULT 50,
		status TEXT NOT NULL,
		remark TEXT NOT NULL,
		class_level_id INTEGER NOT NULL,
		academic_term_id INTEGER NOT NULL,
		academic_year_id INTEGER NOT NULL DEFAULT 0,
		published INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		UNIQUE (student_id, exam_id),
		FOREIGN KEY (student_id) REFERENCES students(id),
		FOREIGN KEY (exam_id) REFERENCES exams(id)
	);

	CREATE TABLE IF NOT EXISTS result_answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		result_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		question TEXT NOT NULL,
		correct_option TEXT NOT NULL,
		chosen_option TEXT NOT NULL,
		correct INTEGER NOT NULL,
		FOREIGN KEY (result_id) REFERENCES exam_results(id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The (student_id, exam_id) index on exam_results relies on this
// to turn a losing concurrent insert into a duplicate-submission error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

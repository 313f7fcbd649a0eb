package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a login account for an admin, teacher or student.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// ExamStatus represents the lifecycle of an exam.
type ExamStatus string

const (
	ExamPending ExamStatus = "pending"
	ExamLive    ExamStatus = "live"
)

// ResultStatus is the pass/fail classification of an exam result.
type ResultStatus string

const (
	StatusPass ResultStatus = "Pass"
	StatusFail ResultStatus = "Fail"
)

// Remark is the qualitative tier derived from a grade.
type Remark string

const (
	RemarkExcellent Remark = "Excellent"
	RemarkVeryGood  Remark = "Very Good"
	RemarkGood      Remark = "Good"
	RemarkFair      Remark = "Fair"
	RemarkPoor      Remark = "Poor"
)

// Option identifies one of the four answer options on a question.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// AcademicYear represents one academic year, e.g. 2025/2026.
type AcademicYear struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FromYear  int    `json:"from_year"`
	ToYear    int    `json:"to_year"`
	CreatedBy int64  `json:"created_by"`
}

// AcademicTerm represents one term within an academic year. Ordinal gives
// the term's position in the progression ladder (1-based).
type AcademicTerm struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Ordinal     int    `json:"ordinal"`
	Description string `json:"description"`
}

// ClassLevel is one rung of the class-level ladder. Rank orders levels
// from lowest to highest (1-based).
type ClassLevel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// Student represents an enrolled student.
type Student struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	AdmissionNo    string     `json:"admission_no"`
	Name           string     `json:"name"`
	CurrentLevelID int64      `json:"current_level_id"`
	AcademicYearID int64      `json:"academic_year_id"`
	DateAdmitted   time.Time  `json:"date_admitted"`
	Suspended      bool       `json:"suspended"`
	Expelled       bool       `json:"expelled"`
	Graduated      bool       `json:"graduated"`
	GraduatedAt    *time.Time `json:"graduated_at,omitempty"`
}

// Barred reports whether the student may not sit exams. Graduated is a
// terminal state, so graduates are barred along with suspended and
// expelled students.
func (s Student) Barred() bool {
	return s.Suspended || s.Expelled || s.Graduated
}

// LevelHistoryEntry is one attained class level in a student's history.
type LevelHistoryEntry struct {
	LevelID    int64     `json:"level_id"`
	LevelName  string    `json:"level_name"`
	AttainedAt time.Time `json:"attained_at"`
}

// Exam represents a graded assessment for one class level, subject and term.
type Exam struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Subject        string     `json:"subject"`
	PassMark       int        `json:"pass_mark"`
	TotalMark      int        `json:"total_mark"`
	ClassLevelID   int64      `json:"class_level_id"`
	AcademicTermID int64      `json:"academic_term_id"`
	AcademicYearID int64      `json:"academic_year_id"`
	Status         ExamStatus `json:"status"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Question is one multiple-choice question owned by exactly one exam.
// Questions are immutable once created; whether a student answered one
// correctly is computed per grading pass and never written back here.
type Question struct {
	ID            int64  `json:"id"`
	ExamID        int64  `json:"exam_id"`
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption Option `json:"correct_option"`
	CreatedBy     int64  `json:"created_by"`
}

// AnswerReview is the per-question outcome recorded with a result.
type AnswerReview struct {
	Position      int    `json:"position"`
	Question      string `json:"question"`
	CorrectOption Option `json:"correct_option"`
	ChosenOption  Option `json:"chosen_option"`
	Correct       bool   `json:"correct"`
}

// ExamResult is the immutable scored outcome of one student's single
// attempt at one exam. At most one result exists per (student, exam)
// pair; only the Published flag is ever mutated after creation.
type ExamResult struct {
	ID             int64          `json:"id"`
	PublicID       string         `json:"public_id"`
	StudentID      int64          `json:"student_id"`
	ExamID         int64          `json:"exam_id"`
	Score          int            `json:"score"`
	Grade          float64        `json:"grade"`
	PassMark       int            `json:"pass_mark"`
	Status         ResultStatus   `json:"status"`
	Remark         Remark         `json:"remark"`
	ClassLevelID   int64          `json:"class_level_id"`
	AcademicTermID int64          `json:"academic_term_id"`
	AcademicYearID int64          `json:"academic_year_id"`
	Published      bool           `json:"published"`
	CreatedAt      time.Time      `json:"created_at"`
	Answers        []AnswerReview `json:"answers,omitempty"`
}

// StudentProfile combines a student with their level history and the
// results they are allowed to see.
type StudentProfile struct {
	Student      Student             `json:"student"`
	CurrentLevel ClassLevel          `json:"current_level"`
	LevelHistory []LevelHistoryEntry `json:"level_history"`
	Results      []ExamResult        `json:"results"`
}

package handler

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/adomako/registrar/internal/model"
)

type createExamRequest struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	Subject        string `json:"subject" validate:"required"`
	PassMark       int    `json:"pass_mark" validate:"gte=0"`
	TotalMark      int    `json:"total_mark" validate:"gte=0"`
	ClassLevelID   int64  `json:"class_level_id" validate:"required"`
	AcademicTermID int64  `json:"academic_term_id" validate:"required"`
	AcademicYearID int64  `json:"academic_year_id"`
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var req createExamRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	yearID := req.AcademicYearID
	if yearID == 0 {
		// Default to the configured current academic year.
		current, err := h.store.CurrentAcademicYear()
		if err == nil {
			yearID = current
		}
	}

	user := model.UserFromContext(r.Context())
	id, err := h.store.CreateExam(model.Exam{
		Name:           req.Name,
		Description:    req.Description,
		Subject:        req.Subject,
		PassMark:       req.PassMark,
		TotalMark:      req.TotalMark,
		ClassLevelID:   req.ClassLevelID,
		AcademicTermID: req.AcademicTermID,
		AcademicYearID: yearID,
		CreatedBy:      user.ID,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	ex, err := h.store.GetExam(id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Created", ex)
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams()
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Fetched", exams)
}

type addQuestionRequest struct {
	Text          string       `json:"text" validate:"required"`
	OptionA       string       `json:"option_a" validate:"required"`
	OptionB       string       `json:"option_b" validate:"required"`
	OptionC       string       `json:"option_c" validate:"required"`
	OptionD       string       `json:"option_d" validate:"required"`
	CorrectOption model.Option `json:"correct_option" validate:"required,oneof=A B C D"`
}

func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	var req addQuestionRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := model.UserFromContext(r.Context())
	id, err := h.store.InsertQuestion(model.Question{
		ExamID:        examID,
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		CreatedBy:     user.ID,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Created", map[string]any{"question_id": id})
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if _, err := h.store.GetExam(examID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	questions, err := h.store.ListQuestions(examID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Fetched", questions)
}

type examStatusRequest struct {
	Status model.ExamStatus `json:"status" validate:"required,oneof=pending live"`
}

func (h *Handler) handleSetExamStatus(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	var req examStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.store.SetExamStatus(examID, req.Status); err != nil {
		h.respondErr(w, r, err)
		return
	}
	ex, err := h.store.GetExam(examID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Updated", ex)
}

type createStudentRequest struct {
	Name           string `json:"name" validate:"required"`
	Username       string `json:"username" validate:"required"`
	Password       string `json:"password" validate:"required,min=6"`
	ClassLevelID   int64  `json:"class_level_id" validate:"required"`
	AcademicYearID int64  `json:"academic_year_id"`
}

// handleCreateStudent registers a student: a login account plus the
// student record with a generated admission number.
func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	student, err := h.store.CreateStudentAccount(
		model.User{
			Username:     req.Username,
			DisplayName:  req.Name,
			PasswordHash: string(hash),
			Role:         model.UserRoleStudent,
			Active:       true,
		},
		model.Student{
			AdmissionNo:    admissionNo(req.Name),
			Name:           req.Name,
			CurrentLevelID: req.ClassLevelID,
			AcademicYearID: req.AcademicYearID,
		},
	)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Created", student)
}

// admissionNo builds an admission number from three random digits, the
// two-digit year and the student's initials.
func admissionNo(name string) string {
	var initials strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		initials.WriteRune(unicode.ToUpper(r))
	}
	return fmt.Sprintf("STU%03d%02d%s", rand.IntN(1000), time.Now().Year()%100, initials.String())
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents()
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Fetched", students)
}

type flagRequest struct {
	Value *bool `json:"value" validate:"required"`
}

func (h *Handler) handleSuspendStudent(w http.ResponseWriter, r *http.Request) {
	h.setStudentFlag(w, r, h.store.SetStudentSuspended)
}

func (h *Handler) handleExpelStudent(w http.ResponseWriter, r *http.Request) {
	h.setStudentFlag(w, r, h.store.SetStudentExpelled)
}

func (h *Handler) setStudentFlag(w http.ResponseWriter, r *http.Request, set func(int64, bool) error) {
	studentID, err := strconv.ParseInt(chi.URLParam(r, "studentID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	var req flagRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := set(studentID, *req.Value); err != nil {
		h.respondErr(w, r, err)
		return
	}
	student, err := h.store.GetStudent(studentID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Updated", student)
}

func (h *Handler) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.store.ListClassLevels()
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Fetched", levels)
}

type createTermRequest struct {
	Name        string `json:"name" validate:"required"`
	Ordinal     int    `json:"ordinal" validate:"required,gte=1"`
	Description string `json:"description"`
}

func (h *Handler) handleCreateTerm(w http.ResponseWriter, r *http.Request) {
	var req createTermRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	id, err := h.store.CreateAcademicTerm(model.AcademicTerm{
		Name:        req.Name,
		Ordinal:     req.Ordinal,
		Description: req.Description,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	term, err := h.store.GetAcademicTerm(id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Created", term)
}

func (h *Handler) handleListTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := h.store.ListAcademicTerms()
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Fetched", terms)
}

type createYearRequest struct {
	Name     string `json:"name" validate:"required"`
	FromYear int    `json:"from_year" validate:"required,gte=1900"`
	ToYear   int    `json:"to_year" validate:"required,gtefield=FromYear"`
	Current  bool   `json:"current"`
}

func (h *Handler) handleCreateYear(w http.ResponseWriter, r *http.Request) {
	var req createYearRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	user := model.UserFromContext(r.Context())
	id, err := h.store.CreateAcademicYear(model.AcademicYear{
		Name:      req.Name,
		FromYear:  req.FromYear,
		ToYear:    req.ToYear,
		CreatedBy: user.ID,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if req.Current {
		if err := h.store.SetCurrentAcademicYear(id); err != nil {
			h.respondErr(w, r, err)
			return
		}
	}
	year, err := h.store.GetAcademicYear(id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Created", year)
}

func (h *Handler) handleListYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.store.ListAcademicYears()
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Fetched", years)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListResults()
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Fetched", results)
}

type publishRequest struct {
	Publish *bool `json:"publish" validate:"required"`
}

// handlePublishResult toggles the publish gate. Results are addressed by
// their public identifier in URLs, never by the row ID.
func (h *Handler) handlePublishResult(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	result, err := h.store.GetResultByPublicID(chi.URLParam(r, "publicID"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	result, err = h.exams.SetResultPublished(r.Context(), result.ID, *req.Publish)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ResultPublished", result)
}

// userSummary is the account shape exposed to admins; the password hash
// never leaves the store layer.
type userSummary struct {
	ID          int64          `json:"id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Role        model.UserRole `json:"role"`
	Active      bool           `json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			Active:      u.Active,
			CreatedAt:   u.CreatedAt,
		})
	}
	h.respond(w, r, http.StatusOK, "Fetched", out)
}

type createUserRequest struct {
	Username    string         `json:"username" validate:"required"`
	DisplayName string         `json:"display_name"`
	Password    string         `json:"password" validate:"required,min=6"`
	Role        model.UserRole `json:"role" validate:"required,oneof=admin teacher student"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}
	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Created", map[string]any{"user_id": id})
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.store.ToggleUserActive(userID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Updated", nil)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adomako/registrar/internal/model"
)

type submitExamRequest struct {
	Answers []model.Option `json:"answers" validate:"required,dive,oneof=A B C D"`
}

// handleSubmitExam grades the authenticated student's answers for one
// exam. The response deliberately carries only a reference to the new
// result: scoring data stays behind the publish gate.
func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(chi.URLParam(r, "examID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	var req submitExamRequest
	if err := h.decode(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	student, err := h.currentStudent(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	result, err := h.exams.Submit(r.Context(), student.ID, examID, req.Answers)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, "SubmissionReceived", map[string]any{
		"result_id": result.ID,
		"public_id": result.PublicID,
	})
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	resultID, err := strconv.ParseInt(chi.URLParam(r, "resultID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	student, err := h.currentStudent(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	result, err := h.exams.ResultForStudent(r.Context(), student.ID, resultID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "ResultFetched", result)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	student, err := h.currentStudent(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	profile, err := h.exams.Profile(r.Context(), student.ID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, "Fetched", profile)
}

// currentStudent resolves the student record behind the authenticated user.
func (h *Handler) currentStudent(r *http.Request) (model.Student, error) {
	user := model.UserFromContext(r.Context())
	if user == nil {
		return model.Student{}, model.ErrStudentNotFound
	}
	return h.store.GetStudentByUserID(user.ID)
}

package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/adomako/registrar/internal/exam"
	appI18n "github.com/adomako/registrar/internal/i18n"
	"github.com/adomako/registrar/internal/model"
	"github.com/adomako/registrar/internal/store"
)

type testEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.SeedAcademics(); err != nil {
		t.Fatalf("seed academics: %v", err)
	}
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	h := New(s, exam.NewService(s), Config{})
	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s
}

func createAccount(t *testing.T, s *store.Store, username, password string, role model.UserRole) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := s.CreateUser(model.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func doJSON(t *testing.T, method, url, token string, body any) (int, testEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env testEnvelope
	// Middleware rejections write plain text, not the envelope.
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func login(t *testing.T, baseURL, username, password string) string {
	t.Helper()
	code, env := doJSON(t, http.MethodPost, baseURL+"/api/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if code != http.StatusOK {
		t.Fatalf("login %s: status %d", username, code)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login %s: no token in %s", username, env.Data)
	}
	return data.Token
}

func TestSubmitAndPublishFlow(t *testing.T) {
	srv, s := newTestServer(t)
	createAccount(t, s, "head", "secret123", model.UserRoleAdmin)
	admin := login(t, srv.URL, "head", "secret123")

	levels, _ := s.ListClassLevels()
	terms, _ := s.ListAcademicTerms()

	// Register a student; the admin route creates account and record together.
	code, env := doJSON(t, http.MethodPost, srv.URL+"/api/admin/students", admin, map[string]any{
		"name":           "Ama Mensah",
		"username":       "ama",
		"password":       "pass1234",
		"class_level_id": levels[0].ID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create student: status %d (%s)", code, env.Message)
	}
	var student model.Student
	if err := json.Unmarshal(env.Data, &student); err != nil {
		t.Fatalf("decode student: %v", err)
	}
	if !strings.HasPrefix(student.AdmissionNo, "STU") {
		t.Errorf("admission number = %q, want STU prefix", student.AdmissionNo)
	}

	code, env = doJSON(t, http.MethodPost, srv.URL+"/api/admin/exams", admin, map[string]any{
		"name":             "Midterm",
		"subject":          "Mathematics",
		"class_level_id":   levels[0].ID,
		"academic_term_id": terms[0].ID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create exam: status %d (%s)", code, env.Message)
	}
	var ex model.Exam
	if err := json.Unmarshal(env.Data, &ex); err != nil {
		t.Fatalf("decode exam: %v", err)
	}

	for _, correct := range []string{"A", "B"} {
		code, env = doJSON(t, http.MethodPost,
			srv.URL+"/api/admin/exams/"+itoa(ex.ID)+"/questions", admin, map[string]any{
				"text":           "pick " + correct,
				"option_a":       "a",
				"option_b":       "b",
				"option_c":       "c",
				"option_d":       "d",
				"correct_option": correct,
			})
		if code != http.StatusCreated {
			t.Fatalf("add question: status %d (%s)", code, env.Message)
		}
	}

	studentToken := login(t, srv.URL, "ama", "pass1234")

	code, env = doJSON(t, http.MethodPost, srv.URL+"/api/exams/"+itoa(ex.ID)+"/submit", studentToken,
		map[string]any{"answers": []string{"A", "B"}})
	if code != http.StatusCreated {
		t.Fatalf("submit: status %d (%s)", code, env.Message)
	}
	var ref struct {
		ResultID int64  `json:"result_id"`
		PublicID string `json:"public_id"`
	}
	if err := json.Unmarshal(env.Data, &ref); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if ref.PublicID == "" {
		t.Fatal("submit response must carry the public id")
	}

	// Unpublished result is withheld from its owner.
	code, _ = doJSON(t, http.MethodGet, srv.URL+"/api/results/"+itoa(ref.ResultID), studentToken, nil)
	if code != http.StatusForbidden {
		t.Fatalf("unpublished read: status %d, want 403", code)
	}

	// A second submission conflicts.
	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/exams/"+itoa(ex.ID)+"/submit", studentToken,
		map[string]any{"answers": []string{"A", "B"}})
	if code != http.StatusConflict {
		t.Fatalf("duplicate submit: status %d, want 409", code)
	}

	// Publish by public id, then the student read succeeds.
	code, env = doJSON(t, http.MethodPost, srv.URL+"/api/admin/results/"+ref.PublicID+"/publish", admin,
		map[string]any{"publish": true})
	if code != http.StatusOK {
		t.Fatalf("publish: status %d (%s)", code, env.Message)
	}

	code, env = doJSON(t, http.MethodGet, srv.URL+"/api/results/"+itoa(ref.ResultID), studentToken, nil)
	if code != http.StatusOK {
		t.Fatalf("published read: status %d", code)
	}
	var result model.ExamResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Grade != 100 || result.Status != model.StatusPass {
		t.Errorf("grade/status = %f/%q, want 100/Pass", result.Grade, result.Status)
	}

	// An unknown public id is a 404, not a silent no-op.
	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/admin/results/nope/publish", admin,
		map[string]any{"publish": true})
	if code != http.StatusNotFound {
		t.Fatalf("publish unknown public id: status %d, want 404", code)
	}
}

func TestAuthAndRoleGates(t *testing.T) {
	srv, s := newTestServer(t)
	createAccount(t, s, "head", "secret123", model.UserRoleAdmin)
	admin := login(t, srv.URL, "head", "secret123")

	code, _ := doJSON(t, http.MethodGet, srv.URL+"/api/profile", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", code)
	}

	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/login", "", map[string]string{
		"username": "head", "password": "wrong",
	})
	if code != http.StatusUnauthorized {
		t.Errorf("bad password: status %d, want 401", code)
	}

	// An admin is not a student: the submission surface is closed to them.
	code, _ = doJSON(t, http.MethodGet, srv.URL+"/api/profile", admin, nil)
	if code != http.StatusForbidden {
		t.Errorf("admin on student route: status %d, want 403", code)
	}

	levels, _ := s.ListClassLevels()
	code, _ = doJSON(t, http.MethodPost, srv.URL+"/api/admin/students", admin, map[string]any{
		"name": "Kofi Boateng", "username": "kofi", "password": "pass1234",
		"class_level_id": levels[0].ID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create student: status %d", code)
	}
	studentToken := login(t, srv.URL, "kofi", "pass1234")
	code, _ = doJSON(t, http.MethodGet, srv.URL+"/api/admin/users", studentToken, nil)
	if code != http.StatusForbidden {
		t.Errorf("student on admin route: status %d, want 403", code)
	}
}

func TestListUsersHidesPasswordHash(t *testing.T) {
	srv, s := newTestServer(t)
	createAccount(t, s, "head", "secret123", model.UserRoleAdmin)
	admin := login(t, srv.URL, "head", "secret123")

	code, env := doJSON(t, http.MethodGet, srv.URL+"/api/admin/users", admin, nil)
	if code != http.StatusOK {
		t.Fatalf("list users: status %d", code)
	}
	var users []map[string]any
	if err := json.Unmarshal(env.Data, &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 1 || users[0]["username"] != "head" {
		t.Fatalf("unexpected users: %v", users)
	}
	for key := range users[0] {
		if strings.Contains(strings.ToLower(key), "password") {
			t.Errorf("user listing leaks %q", key)
		}
	}
}

func TestAdmissionNoUnicodeInitials(t *testing.T) {
	got := admissionNo("Éric Aké")
	if !utf8.ValidString(got) {
		t.Fatalf("admission number %q is not valid UTF-8", got)
	}
	if !strings.HasPrefix(got, "STU") || !strings.HasSuffix(got, "ÉA") {
		t.Errorf("admission number %q, want STU...ÉA", got)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "ExamNotFound")
	if got != "Exam not found" {
		t.Errorf("T(ExamNotFound) = %q, want 'Exam not found'", got)
	}

	got = T(ctx, "DuplicateSubmission")
	if got != "You have already written this exam" {
		t.Errorf("T(DuplicateSubmission) = %q, want 'You have already written this exam'", got)
	}
}

func TestTranslateFrench(t *testing.T) {
	ctx := initLang(t, "fr")

	got := T(ctx, "ExamNotFound")
	if got != "Examen introuvable" {
		t.Errorf("T(ExamNotFound) = %q, want 'Examen introuvable'", got)
	}

	got = T(ctx, "DuplicateSubmission")
	if got != "Vous avez déjà passé cet examen" {
		t.Errorf("T(DuplicateSubmission) = %q, want 'Vous avez déjà passé cet examen'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "InvalidRequest", map[string]any{"Reason": "missing answers"})
	if got != "Invalid request: missing answers" {
		t.Errorf("Td(InvalidRequest) = %q, want 'Invalid request: missing answers'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackWithoutLocalizer(t *testing.T) {
	initLang(t, "en")

	// A bare context falls back to the English localizer.
	got := T(context.Background(), "StudentNotFound")
	if got != "Student not found" {
		t.Errorf("T without localizer = %q, want 'Student not found'", got)
	}
}

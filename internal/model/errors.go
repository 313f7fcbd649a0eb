package model

import "errors"

// Caller-visible error taxonomy for the submission and result workflow.
// The submission guards are strictly ordered, so exactly one of these is
// returned for a rejected submission; none of them is retryable as-is.
var (
	// ErrStudentNotFound is returned when the submitting student does not exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrExamNotFound is returned when the target exam does not exist.
	ErrExamNotFound = errors.New("exam not found")

	// ErrIncompleteSubmission is returned when the answer count does not
	// match the exam's question count.
	ErrIncompleteSubmission = errors.New("not all questions answered")

	// ErrDuplicateSubmission is returned when a result already exists for
	// the (student, exam) pair.
	ErrDuplicateSubmission = errors.New("exam already written")

	// ErrSubmissionForbidden is returned when a suspended, expelled or
	// graduated student attempts a submission.
	ErrSubmissionForbidden = errors.New("student may not sit this exam")

	// ErrResultNotAvailable is returned when a student reads a result that
	// exists but has not been published.
	ErrResultNotAvailable = errors.New("exam result not yet published")

	// ErrNotFound is the generic missing-record error for lookups outside
	// the submission guard chain.
	ErrNotFound = errors.New("not found")
)

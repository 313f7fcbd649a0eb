package model

import "time"

// ResultsExport is the top-level JSON structure for the results export.
type ResultsExport struct {
	School       string         `json:"school"`
	AcademicYear string         `json:"academic_year"`
	ExportedAt   time.Time      `json:"exported_at"`
	NumResults   int            `json:"num_results"`
	Results      []ResultExport `json:"results"`
}

// ResultExport holds one result with its denormalized context for export.
type ResultExport struct {
	PublicID     string         `json:"public_id"`
	AdmissionNo  string         `json:"admission_no"`
	StudentName  string         `json:"student_name"`
	ExamName     string         `json:"exam_name"`
	Subject      string         `json:"subject"`
	ClassLevel   string         `json:"class_level"`
	AcademicTerm string         `json:"academic_term"`
	Score        int            `json:"score"`
	Grade        float64        `json:"grade"`
	Status       ResultStatus   `json:"status"`
	Remark       Remark         `json:"remark"`
	Published    bool           `json:"published"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Answers      []AnswerReview `json:"answers"`
}

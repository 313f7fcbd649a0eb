package store

import (
	"fmt"
	"time"

	"github.com/adomako/registrar/internal/model"
)

// ExportAllResults builds export-ready rows for every result in the ledger,
// resolving the denormalized references captured at submission time.
func (s *Store) ExportAllResults() (model.ResultsExport, error) {
	var out model.ResultsExport

	results, err := s.ListResults()
	if err != nil {
		return out, fmt.Errorf("list results: %w", err)
	}

	for _, r := range results {
		full, err := s.GetResult(r.ID)
		if err != nil {
			return out, fmt.Errorf("get result %d: %w", r.ID, err)
		}
		student, err := s.GetStudent(r.StudentID)
		if err != nil {
			return out, fmt.Errorf("get student %d: %w", r.StudentID, err)
		}
		exam, err := s.GetExam(r.ExamID)
		if err != nil {
			return out, fmt.Errorf("get exam %d: %w", r.ExamID, err)
		}
		level, err := s.GetClassLevel(r.ClassLevelID)
		if err != nil {
			return out, fmt.Errorf("get class level %d: %w", r.ClassLevelID, err)
		}
		term, err := s.GetAcademicTerm(r.AcademicTermID)
		if err != nil {
			return out, fmt.Errorf("get academic term %d: %w", r.AcademicTermID, err)
		}

		out.Results = append(out.Results, model.ResultExport{
			PublicID:     full.PublicID,
			AdmissionNo:  student.AdmissionNo,
			StudentName:  student.Name,
			ExamName:     exam.Name,
			Subject:      exam.Subject,
			ClassLevel:   level.Name,
			AcademicTerm: term.Name,
			Score:        full.Score,
			Grade:        full.Grade,
			Status:       full.Status,
			Remark:       full.Remark,
			Published:    full.Published,
			SubmittedAt:  full.CreatedAt,
			Answers:      full.Answers,
		})
	}

	out.School, err = s.SchoolName()
	if err != nil {
		return out, fmt.Errorf("school name: %w", err)
	}
	if yearID, err := s.CurrentAcademicYear(); err == nil && yearID != 0 {
		if year, err := s.GetAcademicYear(yearID); err == nil {
			out.AcademicYear = year.Name
		}
	}
	out.ExportedAt = time.Now()
	out.NumResults = len(out.Results)
	return out, nil
}

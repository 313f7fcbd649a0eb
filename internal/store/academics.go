package store

import (
	"database/sql"
	"fmt"

	"github.com/adomako/registrar/internal/model"
)

// defaultLevels and defaultTerms seed a fresh database with the standard
// four-level ladder and its qualifying terms.
var defaultLevels = []string{"Level 100", "Level 200", "Level 300", "Level 400"}

var defaultTerms = []string{"1st term", "2nd term", "3rd term", "4th term"}

// SeedAcademics inserts the default class levels and academic terms when
// none exist yet.
func (s *Store) SeedAcademics() error {
	var levels int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM class_levels`).Scan(&levels); err != nil {
		return err
	}
	if levels == 0 {
		for i, name := range defaultLevels {
			if _, err := s.db.Exec(
				`INSERT INTO class_levels (name, rank) VALUES (?, ?)`, name, i+1,
			); err != nil {
				return fmt.Errorf("seed class level %q: %w", name, err)
			}
		}
	}

	var terms int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM academic_terms`).Scan(&terms); err != nil {
		return err
	}
	if terms == 0 {
		for i, name := range defaultTerms {
			if _, err := s.db.Exec(
				`INSERT INTO academic_terms (name, ordinal) VALUES (?, ?)`, name, i+1,
			); err != nil {
				return fmt.Errorf("seed academic term %q: %w", name, err)
			}
		}
	}
	return nil
}

// ListClassLevels returns all class levels ordered by rank, lowest first.
func (s *Store) ListClassLevels() ([]model.ClassLevel, error) {
	rows, err := s.db.Query(`SELECT id, name, rank FROM class_levels ORDER BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []model.ClassLevel
	for rows.Next() {
		var l model.ClassLevel
		if err := rows.Scan(&l.ID, &l.Name, &l.Rank); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// GetClassLevel returns a class level by ID.
func (s *Store) GetClassLevel(id int64) (model.ClassLevel, error) {
	var l model.ClassLevel
	err := s.db.QueryRow(
		`SELECT id, name, rank FROM class_levels WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.Rank)
	if err == sql.ErrNoRows {
		return l, model.ErrNotFound
	}
	return l, err
}

// CreateAcademicTerm inserts a term with its ladder ordinal.
func (s *Store) CreateAcademicTerm(t model.AcademicTerm) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO academic_terms (name, ordinal, description) VALUES (?, ?, ?)`,
		t.Name, t.Ordinal, t.Description,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAcademicTerm returns a term by ID.
func (s *Store) GetAcademicTerm(id int64) (model.AcademicTerm, error) {
	var t model.AcademicTerm
	err := s.db.QueryRow(
		`SELECT id, name, ordinal, description FROM academic_terms WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Ordinal, &t.Description)
	if err == sql.ErrNoRows {
		return t, model.ErrNotFound
	}
	return t, err
}

// ListAcademicTerms returns all terms ordered by ordinal.
func (s *Store) ListAcademicTerms() ([]model.AcademicTerm, error) {
	rows, err := s.db.Query(`SELECT id, name, ordinal, description FROM academic_terms ORDER BY ordinal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var terms []model.AcademicTerm
	for rows.Next() {
		var t model.AcademicTerm
		if err := rows.Scan(&t.ID, &t.Name, &t.Ordinal, &t.Description); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// CreateAcademicYear inserts an academic year.
func (s *Store) CreateAcademicYear(y model.AcademicYear) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO academic_years (name, from_year, to_year, created_by) VALUES (?, ?, ?, ?)`,
		y.Name, y.FromYear, y.ToYear, y.CreatedBy,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAcademicYear returns an academic year by ID.
func (s *Store) GetAcademicYear(id int64) (model.AcademicYear, error) {
	var y model.AcademicYear
	err := s.db.QueryRow(
		`SELECT id, name, from_year, to_year, created_by FROM academic_years WHERE id = ?`, id,
	).Scan(&y.ID, &y.Name, &y.FromYear, &y.ToYear, &y.CreatedBy)
	if err == sql.ErrNoRows {
		return y, model.ErrNotFound
	}
	return y, err
}

// ListAcademicYears returns all academic years, oldest first.
func (s *Store) ListAcademicYears() ([]model.AcademicYear, error) {
	rows, err := s.db.Query(`SELECT id, name, from_year, to_year, created_by FROM academic_years ORDER BY from_year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var years []model.AcademicYear
	for rows.Next() {
		var y model.AcademicYear
		if err := rows.Scan(&y.ID, &y.Name, &y.FromYear, &y.ToYear, &y.CreatedBy); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

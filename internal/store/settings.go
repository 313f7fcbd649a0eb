package store

import (
	"database/sql"
	"strconv"
)

const (
	settingSchoolName  = "school_name"
	settingCurrentYear = "current_academic_year"
)

// SetSetting upserts a key-value pair in the settings table.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetSetting returns the value for a settings key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSchoolName stores the school name used in exports.
func (s *Store) SetSchoolName(name string) error {
	return s.SetSetting(settingSchoolName, name)
}

// SchoolName returns the configured school name.
func (s *Store) SchoolName() (string, error) {
	return s.GetSetting(settingSchoolName)
}

// SetCurrentAcademicYear marks the academic year new exams default to.
func (s *Store) SetCurrentAcademicYear(yearID int64) error {
	return s.SetSetting(settingCurrentYear, strconv.FormatInt(yearID, 10))
}

// CurrentAcademicYear returns the current academic year ID, or 0 when unset.
func (s *Store) CurrentAcademicYear() (int64, error) {
	v, err := s.GetSetting(settingCurrentYear)
	if err != nil || v == "" {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/revise/pkg/models"
)

// SubjectRepository handles database operations for subjects
type SubjectRepository struct{}

// NewSubjectRepository creates a new repository instance
func NewSubjectRepository() *SubjectRepository {
	return &SubjectRepository{}
}

// GetAll returns all subjects ordered by name
func (r *SubjectRepository) GetAll() ([]models.Subject, error) {
	var subjects []models.Subject
	err := DB.Select(&subjects, "SELECT * FROM subjects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects: %w", err)
	}
	return subjects, nil
}

// GetByID returns a subject by ID, or nil when it does not exist
func (r *SubjectRepository) GetByID(id string) (*models.Subject, error) {
	var subject models.Subject
	err := DB.Get(&subject, rebind("SELECT * FROM subjects WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &subject, nil
}

// GetByName returns a subject by its exact name, or nil when none matches
func (r *SubjectRepository) GetByName(name string) (*models.Subject, error) {
	var subject models.Subject
	err := DB.Get(&subject, rebind("SELECT * FROM subjects WHERE name = ?"), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return &subject, nil
}

// Create inserts a new subject
func (r *SubjectRepository) Create(subject *models.Subject) error {
	query := rebind(`
		INSERT INTO subjects (id, name, color, icon, exam_date, difficulty_modifier, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := DB.Exec(query,
		subject.ID,
		subject.Name,
		subject.Color,
		subject.Icon,
		subject.ExamDate,
		subject.DifficultyModifier,
		subject.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

// Update rewrites an existing subject
func (r *SubjectRepository) Update(subject *models.Subject) error {
	query := rebind(`
		UPDATE subjects
		SET name = ?, color = ?, icon = ?, exam_date = ?, difficulty_modifier = ?
		WHERE id = ?
	`)
	result, err := DB.Exec(query,
		subject.Name,
		subject.Color,
		subject.Icon,
		subject.ExamDate,
		subject.DifficultyModifier,
		subject.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subject: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("subject %s not found", subject.ID)
	}
	return nil
}

// Delete removes a subject and detaches its topics
func (r *SubjectRepository) Delete(id string) error {
	tx, err := DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.Exec(rebind("UPDATE topics SET subject_id = NULL WHERE subject_id = ?"), id); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to detach topics: %w", err)
	}
	result, err := tx.Exec(rebind("DELETE FROM subjects WHERE id = ?"), id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete subject: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return fmt.Errorf("subject %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

// SectionRepository persists sections and their year levels.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns sections ordered by year level then id. yearLevel 0 lists all.
func (r *SectionRepository) List(ctx context.Context, yearLevel int) ([]models.Section, error) {
	query := `SELECT id, year_level, created_at FROM sections`
	var args []interface{}
	if yearLevel > 0 {
		query += ` WHERE year_level = $1`
		args = append(args, yearLevel)
	}
	query += ` ORDER BY year_level ASC, id ASC`

	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindByID loads a section.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, year_level, created_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// YearLevels returns the distinct year levels that have sections.
func (r *SectionRepository) YearLevels(ctx context.Context) ([]int, error) {
	const query = `SELECT DISTINCT year_level FROM sections ORDER BY year_level ASC`
	var levels []int
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list year levels: %w", err)
	}
	return levels, nil
}

// Create inserts a section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sections (id, year_level, created_at) VALUES (:id, :year_level, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	classeserrors "fitstudio/internal/classes/errors"
	"fitstudio/pkg/config"
	"fitstudio/pkg/db/postgres"
	"fitstudio/pkg/model"

	"github.com/jackc/pgx/v5"
)

const classColumns = `id, name, description, instructor, class_datetime, duration_minutes,
	max_slots, booked_slots, is_active, created_at, updated_at`

type postgresClassRepository struct {
	cfg *config.Config
	db  *postgres.DB
}

func NewPostgresClassRepository(cfg *config.Config, db *postgres.DB) ClassRepository {
	return &postgresClassRepository{cfg: cfg, db: db}
}

func (r *postgresClassRepository) Create(ctx context.Context, class *model.FitnessClass) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO fitness_classes
			(name, description, instructor, class_datetime, duration_minutes, max_slots, booked_slots, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		class.Name, class.Description, class.Instructor, class.ClassDateTime,
		class.DurationMinutes, class.MaxSlots, class.BookedSlots, class.IsActive,
	).Scan(&class.ID, &class.CreatedAt, &class.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create fitness class: %w", err)
	}
	return nil
}

func (r *postgresClassRepository) FindByID(ctx context.Context, id int64) (*model.FitnessClass, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	class, err := scanClass(r.db.QueryRow(ctx, `SELECT `+classColumns+` FROM fitness_classes WHERE id = $1`, id))
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", classeserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find fitness class: %w", err)
	}
	return class, nil
}

func (r *postgresClassRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*model.FitnessClass, error) {
	classes := make(map[int64]*model.FitnessClass, len(ids))
	if len(ids) == 0 {
		return classes, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+classColumns+` FROM fitness_classes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query fitness classes: %w", err)
	}
	found, err := collectClasses(rows)
	if err != nil {
		return nil, err
	}
	for _, c := range found {
		classes[c.ID] = c
	}
	return classes, nil
}

func (r *postgresClassRepository) FindActive(ctx context.Context) ([]*model.FitnessClass, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+classColumns+` FROM fitness_classes WHERE is_active ORDER BY class_datetime, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fitness classes: %w", err)
	}
	return collectClasses(rows)
}

func (r *postgresClassRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM fitness_classes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count fitness classes: %w", err)
	}
	return count, nil
}

func scanClass(row pgx.Row) (*model.FitnessClass, error) {
	var c model.FitnessClass
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Instructor, &c.ClassDateTime,
		&c.DurationMinutes, &c.MaxSlots, &c.BookedSlots, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectClasses(rows pgx.Rows) ([]*model.FitnessClass, error) {
	defer rows.Close()

	classes := []*model.FitnessClass{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode fitness class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fitness classes: %w", err)
	}
	return classes, nil
}

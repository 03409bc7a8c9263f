package repositories

import (
	"context"
	"fmt"
)

// StaffRepository resolves notification recipients from staff positions.
type StaffRepository interface {
	ListIDsByPositionGroup(ctx context.Context, group string) ([]string, error)
}

type staffRepo struct {
	db DBTX
}

func NewStaffRepo(db DBTX) StaffRepository {
	return &staffRepo{db: db}
}

func (r *staffRepo) ListIDsByPositionGroup(ctx context.Context, group string) ([]string, error) {
	query := `
		SELECT DISTINCT s.staff_id
		FROM staff s
		JOIN position p ON p.pos_id = s.pos_id
		WHERE UPPER(p.pos_group) = UPPER($1)
		ORDER BY s.staff_id
	`
	rows, err := r.db.Query(ctx, query, group)
	if err != nil {
		return nil, fmt.Errorf("list staff in %s: %w", group, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

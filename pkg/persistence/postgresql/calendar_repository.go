package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/caseflow/caseflow/pkg/persistence"
)

// CalendarRepository handles holiday and leave records.
type CalendarRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(db *sql.DB, logger *slog.Logger) *CalendarRepository {
	return &CalendarRepository{db: db, logger: logger}
}

func (r *CalendarRepository) HolidaysByRegion(ctx context.Context, region string) ([]*models.Holiday, error) {
	query := `SELECT id, date, region, label FROM holidays WHERE region = $1 ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, region)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}

	defer r.closeRows(ctx, rows)

	holidays := make([]*models.Holiday, 0)

	for rows.Next() {
		var (
			holiday models.Holiday
			label   sql.NullString
		)

		err = rows.Scan(&holiday.ID, &holiday.Date, &holiday.Region, &label)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}

		holiday.Label = label.String

		holidays = append(holidays, &holiday)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating holidays: %w", err)
	}

	return holidays, nil
}

func (r *CalendarRepository) HolidayExists(ctx context.Context, date time.Time, region string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM holidays WHERE date = $1 AND region = $2)`

	var exists bool

	err := r.db.QueryRowContext(ctx, query, date.Format("2006-01-02"), region).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}

	return exists, nil
}

func (r *CalendarRepository) SaveHoliday(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == 0 {
		query := `
			INSERT INTO holidays (date, region, label)
			VALUES ($1, $2, $3)
			ON CONFLICT (date, region) DO UPDATE SET label = EXCLUDED.label
			RETURNING id
		`

		err := r.db.QueryRowContext(ctx, query,
			holiday.Date.Format("2006-01-02"), holiday.Region, nullableString(holiday.Label)).
			Scan(&holiday.ID)
		if err != nil {
			return fmt.Errorf("failed to insert holiday: %w", err)
		}

		return nil
	}

	query := `UPDATE holidays SET date = $2, region = $3, label = $4 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		holiday.ID, holiday.Date.Format("2006-01-02"), holiday.Region, nullableString(holiday.Label))
	if err != nil {
		return fmt.Errorf("failed to update holiday: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrHolidayNotFound
	}

	return nil
}

func (r *CalendarRepository) DeleteHoliday(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrHolidayNotFound
	}

	return nil
}

func (r *CalendarRepository) LeavesByUser(ctx context.Context, userID string) ([]*models.Leave, error) {
	query := `
		SELECT id, user_id, from_at, to_at, substitute_user_id, active
		FROM leaves
		WHERE user_id = $1
		ORDER BY from_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}

	defer r.closeRows(ctx, rows)

	leaves := make([]*models.Leave, 0)

	for rows.Next() {
		var (
			leave      models.Leave
			substitute sql.NullString
		)

		err = rows.Scan(&leave.ID, &leave.UserID, &leave.From, &leave.To, &substitute, &leave.Active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave: %w", err)
		}

		leave.SubstituteUserID = substitute.String

		leaves = append(leaves, &leave)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating leaves: %w", err)
	}

	return leaves, nil
}

func (r *CalendarRepository) SaveLeave(ctx context.Context, leave *models.Leave) error {
	if leave.ID == 0 {
		query := `
			INSERT INTO leaves (user_id, from_at, to_at, substitute_user_id, active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`

		err := r.db.QueryRowContext(ctx, query,
			leave.UserID, leave.From, leave.To, nullableString(leave.SubstituteUserID), leave.Active).
			Scan(&leave.ID)
		if err != nil {
			return fmt.Errorf("failed to insert leave: %w", err)
		}

		return nil
	}

	query := `
		UPDATE leaves
		SET user_id = $2, from_at = $3, to_at = $4, substitute_user_id = $5, active = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		leave.ID, leave.UserID, leave.From, leave.To, nullableString(leave.SubstituteUserID), leave.Active)
	if err != nil {
		return fmt.Errorf("failed to update leave: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrLeaveNotFound
	}

	return nil
}

func (r *CalendarRepository) DeleteLeave(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM leaves WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leave: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}

	if affected == 0 {
		return persistence.ErrLeaveNotFound
	}

	return nil
}

func (r *CalendarRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

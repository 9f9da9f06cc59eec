package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/garnizeh/jobtrack/pkg/models"
)

const reminderColumns = `id, application_id, title, date, completed`

// insertReminders stores reminders in the given order under applicationID,
// assigning fresh ids, and returns the stored rows.
func insertReminders(ctx context.Context, tx *sql.Tx, applicationID string, reminders []models.Reminder) ([]models.Reminder, error) {
	out := make([]models.Reminder, 0, len(reminders))
	for i, rem := range reminders {
		rem.ID = uuid.NewString()
		rem.ApplicationID = applicationID
		if _, err := tx.ExecContext(ctx, `INSERT INTO reminders (id, application_id, position, title, date, completed) VALUES (?, ?, ?, ?, ?, ?)`,
			rem.ID, applicationID, i, rem.Title, formatTime(rem.Date), rem.Completed); err != nil {
			return nil, fmt.Errorf("insert reminder: %w", err)
		}
		out = append(out, rem)
	}
	return out, nil
}

func deleteReminders(ctx context.Context, tx *sql.Tx, applicationID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE application_id = ?`, applicationID); err != nil {
		return fmt.Errorf("delete reminders: %w", err)
	}
	return nil
}

func listReminders(ctx context.Context, q queryer, applicationID string) ([]models.Reminder, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE application_id = ? ORDER BY position`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func listRemindersByOwner(ctx context.Context, q queryer, ownerID string) ([]models.Reminder, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT r.id, r.application_id, r.title, r.date, r.completed
		FROM reminders r
		JOIN applications a ON a.id = r.application_id
		WHERE a.owner_id = ?
		ORDER BY r.application_id, r.position`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func scanReminders(rows *sql.Rows) ([]models.Reminder, error) {
	out := []models.Reminder{}
	for rows.Next() {
		var rem models.Reminder
		var date string
		if err := rows.Scan(&rem.ID, &rem.ApplicationID, &rem.Title, &date, &rem.Completed); err != nil {
			return nil, err
		}

		d, err := parseTime(date)
		if err != nil {
			return nil, fmt.Errorf("reminder %s: bad date %q: %w", rem.ID, date, err)
		}
		rem.Date = d
		out = append(out, rem)
	}

	return out, rows.Err()
}

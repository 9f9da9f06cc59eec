package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/garnizeh/jobtrack/pkg/models"
	"github.com/garnizeh/jobtrack/pkg/repository"
)

const applicationColumns = `id, owner_id, company, position, status, application_date, notes, contact_email, contact_phone, salary, location, url, application_type, job_type, contract_type, cover_letter_path, company_logo_path, created`

// CreateApplication inserts a and its reminders in one transaction.
func (r *SQLiteRepo) CreateApplication(ctx context.Context, a *models.Application) error {
	if a == nil {
		return fmt.Errorf("application is nil")
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	created := now()
	f := a.ApplicationFields
	_, err = tx.ExecContext(ctx, `INSERT INTO applications (`+applicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, a.OwnerID, f.Company, f.Position, string(f.Status), formatTime(f.ApplicationDate),
		f.Notes, f.ContactEmail, f.ContactPhone, f.Salary, f.Location, f.URL,
		string(f.ApplicationType), string(f.JobType), contractValue(f.ContractType),
		f.CoverLetterPath, f.CompanyLogoPath, created,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}

	reminders, err := insertReminders(ctx, tx, id, a.Reminders)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	a.ID = id
	a.CreatedAt = fromMillis(created)
	a.Reminders = reminders
	return nil
}

// GetApplication returns the record with its reminders, or nil if absent.
// Both reads share one transaction.
func (r *SQLiteRepo) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	a, err := getApplication(ctx, tx, id)
	if err != nil || a == nil {
		return nil, err
	}
	if a.Reminders, err = listReminders(ctx, tx, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// ListApplicationsByOwner returns the owner's records newest first. Records
// and reminders are read inside one transaction so the result is a consistent
// snapshot.
func (r *SQLiteRepo) ListApplicationsByOwner(ctx context.Context, ownerID string) ([]models.Application, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE owner_id = ? ORDER BY created DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}

	out := []models.Application{}
	index := make(map[string]int)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		a.Reminders = []models.Reminder{}
		index[a.ID] = len(out)
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	byOwner, err := listRemindersByOwner(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, rem := range byOwner {
		if i, ok := index[rem.ApplicationID]; ok {
			out[i].Reminders = append(out[i].Reminders, rem)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// UpdateApplication runs check against the row read inside the transaction,
// then replaces the mutable fields and the reminder set. The UPDATE is also
// conditioned on the owner read by that same transaction.
func (r *SQLiteRepo) UpdateApplication(ctx context.Context, id string, check repository.CheckFunc, f models.ApplicationFields, reminders []models.Reminder) (*models.Application, error) {
	if check == nil {
		return nil, fmt.Errorf("check is nil")
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getApplication(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	if err := check(current); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE applications SET
			company = ?, position = ?, status = ?, application_date = ?, notes = ?,
			contact_email = ?, contact_phone = ?, salary = ?, location = ?, url = ?,
			application_type = ?, job_type = ?, contract_type = ?,
			cover_letter_path = ?, company_logo_path = ?
		WHERE id = ? AND owner_id = ?`,
		f.Company, f.Position, string(f.Status), formatTime(f.ApplicationDate), f.Notes,
		f.ContactEmail, f.ContactPhone, f.Salary, f.Location, f.URL,
		string(f.ApplicationType), string(f.JobType), contractValue(f.ContractType),
		f.CoverLetterPath, f.CompanyLogoPath,
		id, current.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n != 1 {
		return nil, fmt.Errorf("update application %s: %d rows affected", id, n)
	}

	if err := deleteReminders(ctx, tx, id); err != nil {
		return nil, err
	}
	if _, err := insertReminders(ctx, tx, id, reminders); err != nil {
		return nil, err
	}

	updated, err := getApplication(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("reload application: %w", err)
	}
	if updated.Reminders, err = listReminders(ctx, tx, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// DeleteApplication runs check inside the transaction and removes the record
// together with every reminder it owns.
func (r *SQLiteRepo) DeleteApplication(ctx context.Context, id string, check repository.CheckFunc) error {
	if check == nil {
		return fmt.Errorf("check is nil")
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getApplication(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	if err := check(current); err != nil {
		return err
	}

	if err := deleteReminders(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = ? AND owner_id = ?`, id, current.OwnerID); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// getApplication loads the record without reminders, nil if absent.
func getApplication(ctx context.Context, q queryer, id string) (*models.Application, error) {
	row := q.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	a, err := scanApplication(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		a               models.Application
		status          string
		applicationDate string
		applicationType string
		jobType         string
		notes           sql.NullString
		contactEmail    sql.NullString
		contactPhone    sql.NullString
		salary          sql.NullString
		location        sql.NullString
		url             sql.NullString
		contractType    sql.NullString
		coverLetter     sql.NullString
		companyLogo     sql.NullString
		created         int64
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Company, &a.Position, &status, &applicationDate,
		&notes, &contactEmail, &contactPhone, &salary, &location, &url,
		&applicationType, &jobType, &contractType, &coverLetter, &companyLogo, &created); err != nil {
		return nil, err
	}

	date, err := parseTime(applicationDate)
	if err != nil {
		return nil, fmt.Errorf("application %s: bad application_date %q: %w", a.ID, applicationDate, err)
	}

	a.Status = models.Status(status)
	a.ApplicationDate = date
	a.Notes = nullString(notes)
	a.ContactEmail = nullString(contactEmail)
	a.ContactPhone = nullString(contactPhone)
	a.Salary = nullString(salary)
	a.Location = nullString(location)
	a.URL = nullString(url)
	a.ApplicationType = models.ApplicationType(applicationType)
	a.JobType = models.JobType(jobType)
	if contractType.Valid {
		ct := models.ContractType(contractType.String)
		a.ContractType = &ct
	}
	a.CoverLetterPath = nullString(coverLetter)
	a.CompanyLogoPath = nullString(companyLogo)
	a.CreatedAt = fromMillis(created)

	return &a, nil
}

func contractValue(ct *models.ContractType) any {
	if ct == nil {
		return nil
	}
	return string(*ct)
}

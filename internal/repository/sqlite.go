package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/bills-tracker/constants"
	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
)

const sqliteBillColumns = `id, user_id, name, amount, due_date, category, is_paid, frequency, created_at, updated_at`

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at dbPath and applies migrations.
func OpenSQLite(ctx context.Context, dbPath string, migrate bool, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err := MigrateSQLite(dbPath, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	logger.Info("sqlite store opened", "path", dbPath)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Bills() BillRepository       { return &sqliteBills{db: s.db, logger: s.logger} }
func (s *SQLiteStore) Profiles() ProfileRepository { return &sqliteProfiles{db: s.db, logger: s.logger} }
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type sqliteBills struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *sqliteBills) Create(ctx context.Context, userID string, in entity.BillInput) (*entity.Bill, error) {
	b := newBill(userID, in, time.Now().UTC())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bills (`+sqliteBillColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.UserID, b.Name, b.Amount.String(), b.DueDate.Format(constants.DateLayout),
		b.Category, boolToInt(b.IsPaid), b.Frequency, formatTS(b.CreatedAt), formatTS(b.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("failed to create bill", "user_id", userID, "name", b.Name, "error", err)
		return nil, fmt.Errorf("%w: insert bill: %v", common.ErrDatabase, err)
	}
	return b, nil
}

func (r *sqliteBills) Get(ctx context.Context, userID string, id uuid.UUID) (*entity.Bill, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sqliteBillColumns+` FROM bills WHERE id = ? AND user_id = ?`, id.String(), userID)
	b, err := scanSQLiteBill(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get bill: %v", common.ErrDatabase, err)
	}
	return b, nil
}

func (r *sqliteBills) List(ctx context.Context, userID string, f entity.BillFilter) ([]*entity.Bill, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.IsPaid != nil {
		where = append(where, "is_paid = ?")
		args = append(args, boolToInt(*f.IsPaid))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	// ISO dates compare correctly as text.
	if !f.From.IsZero() {
		where = append(where, "due_date >= ?")
		args = append(args, f.From.Format(constants.DateLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "due_date < ?")
		args = append(args, f.To.Format(constants.DateLayout))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteBillColumns+` FROM bills WHERE `+strings.Join(where, " AND ")+` ORDER BY due_date, created_at`,
		args...)
	if err != nil {
		r.logger.Error("failed to list bills", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: list bills: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.Bill
	for rows.Next() {
		b, err := scanSQLiteBill(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan bill: %v", common.ErrDatabase, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list bills: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *sqliteBills) Update(ctx context.Context, userID string, id uuid.UUID, update entity.BillUpdate) (*entity.Bill, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback() }()

	b, err := scanSQLiteBill(tx.QueryRowContext(ctx,
		`SELECT `+sqliteBillColumns+` FROM bills WHERE id = ? AND user_id = ?`, id.String(), userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get bill: %v", common.ErrDatabase, err)
	}
	update.Apply(b)
	b.DueDate = dateOnly(b.DueDate)
	b.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE bills SET name = ?, amount = ?, due_date = ?, category = ?, is_paid = ?, frequency = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		b.Name, b.Amount.String(), b.DueDate.Format(constants.DateLayout), b.Category, boolToInt(b.IsPaid),
		b.Frequency, formatTS(b.UpdatedAt), b.ID.String(), userID,
	)
	if err != nil {
		r.logger.Error("failed to update bill", "user_id", userID, "bill_id", id, "error", err)
		return nil, fmt.Errorf("%w: update bill: %v", common.ErrDatabase, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	return b, nil
}

func (r *sqliteBills) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("%w: delete bill: %v", common.ErrDatabase, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBill(row rowScanner) (*entity.Bill, error) {
	var (
		b                                     entity.Bill
		id, amount, due, createdAt, updatedAt string
		isPaid                                int
	)
	if err := row.Scan(&id, &b.UserID, &b.Name, &amount, &due, &b.Category, &isPaid, &b.Frequency, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if b.DueDate, err = time.Parse(constants.DateLayout, due); err != nil {
		return nil, fmt.Errorf("parse due date: %w", err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	b.IsPaid = isPaid != 0
	return &b, nil
}

type sqliteProfiles struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *sqliteProfiles) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	var (
		p                              entity.Profile
		income, savingsGoal, updatedAt string
		dueSoon, paidConf, tips        int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, income, savings_goal, currency,
			notify_due_soon, notify_paid_confirmation, notify_savings_tips, updated_at
		FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &income, &savingsGoal, &p.Currency, &dueSoon, &paidConf, &tips, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get profile: %v", common.ErrDatabase, err)
	}
	if p.Income, err = decimal.NewFromString(income); err != nil {
		return nil, fmt.Errorf("parse income: %w", err)
	}
	if p.SavingsGoal, err = decimal.NewFromString(savingsGoal); err != nil {
		return nil, fmt.Errorf("parse savings goal: %w", err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	p.Notifications = entity.Notifications{DueSoon: dueSoon != 0, PaidConfirmation: paidConf != 0, SavingsTips: tips != 0}
	return &p, nil
}

func (r *sqliteProfiles) Upsert(ctx context.Context, profile *entity.Profile) (*entity.Profile, error) {
	p := *profile
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, income, savings_goal, currency,
			notify_due_soon, notify_paid_confirmation, notify_savings_tips, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			income = excluded.income,
			savings_goal = excluded.savings_goal,
			currency = excluded.currency,
			notify_due_soon = excluded.notify_due_soon,
			notify_paid_confirmation = excluded.notify_paid_confirmation,
			notify_savings_tips = excluded.notify_savings_tips,
			updated_at = excluded.updated_at`,
		p.UserID, p.Income.String(), p.SavingsGoal.String(), p.Currency,
		boolToInt(p.Notifications.DueSoon), boolToInt(p.Notifications.PaidConfirmation), boolToInt(p.Notifications.SavingsTips),
		formatTS(p.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("failed to upsert profile", "user_id", p.UserID, "error", err)
		return nil, fmt.Errorf("%w: upsert profile: %v", common.ErrDatabase, err)
	}
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTS(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/entity"
)

const pgBillColumns = `id::text, user_id, name, amount::text, due_date, category, is_paid, frequency, created_at, updated_at`

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) Bills() BillRepository       { return &pgBills{pool: s.pool, logger: s.logger} }
func (s *PostgresStore) Profiles() ProfileRepository { return &pgProfiles{pool: s.pool, logger: s.logger} }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return pingPool(ctx, s.pool, 2*time.Second)
}

func (s *PostgresStore) Close() error {
	s.logger.Info("closing database connections")
	s.pool.Close()
	return nil
}

type pgBills struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func (r *pgBills) Create(ctx context.Context, userID string, in entity.BillInput) (*entity.Bill, error) {
	b := newBill(userID, in, time.Now().UTC())
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bills (id, user_id, name, amount, due_date, category, is_paid, frequency, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5::date, $6, $7, $8, $9, $10)`,
		b.ID.String(), b.UserID, b.Name, b.Amount.String(), b.DueDate, b.Category, b.IsPaid, b.Frequency, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create bill", "user_id", userID, "name", b.Name, "error", err)
		return nil, fmt.Errorf("%w: insert bill: %v", common.ErrDatabase, err)
	}
	return b, nil
}

func (r *pgBills) Get(ctx context.Context, userID string, id uuid.UUID) (*entity.Bill, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+pgBillColumns+` FROM bills WHERE id = $1::uuid AND user_id = $2`,
		id.String(), userID,
	)
	b, err := scanPgBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get bill: %v", common.ErrDatabase, err)
	}
	return b, nil
}

func (r *pgBills) List(ctx context.Context, userID string, f entity.BillFilter) ([]*entity.Bill, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.IsPaid != nil {
		add("is_paid = $%d", *f.IsPaid)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if !f.From.IsZero() {
		add("due_date >= $%d::date", dateOnly(f.From))
	}
	if !f.To.IsZero() {
		add("due_date < $%d::date", dateOnly(f.To))
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+pgBillColumns+` FROM bills WHERE `+strings.Join(where, " AND ")+` ORDER BY due_date, created_at`,
		args...,
	)
	if err != nil {
		r.logger.Error("failed to list bills", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: list bills: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.Bill
	for rows.Next() {
		b, err := scanPgBill(rows)
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

func (r *pgBills) Update(ctx context.Context, userID string, id uuid.UUID, update entity.BillUpdate) (*entity.Bill, error) {
	var out *entity.Bill
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+pgBillColumns+` FROM bills WHERE id = $1::uuid AND user_id = $2 FOR UPDATE`,
			id.String(), userID,
		)
		b, err := scanPgBill(row)
		if err != nil {
			return err
		}
		update.Apply(b)
		b.DueDate = dateOnly(b.DueDate)
		b.UpdatedAt = time.Now().UTC()

		_, err = tx.Exec(ctx, `
			UPDATE bills SET name = $3, amount = $4::numeric, due_date = $5::date, category = $6,
				is_paid = $7, frequency = $8, updated_at = $9
			WHERE id = $1::uuid AND user_id = $2`,
			b.ID.String(), userID, b.Name, b.Amount.String(), b.DueDate, b.Category, b.IsPaid, b.Frequency, b.UpdatedAt,
		)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("failed to update bill", "user_id", userID, "bill_id", id, "error", err)
		return nil, fmt.Errorf("%w: update bill: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *pgBills) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bills WHERE id = $1::uuid AND user_id = $2`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("%w: delete bill: %v", common.ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanPgBill(row pgx.Row) (*entity.Bill, error) {
	var (
		b             entity.Bill
		id, amountTxt string
	)
	if err := row.Scan(&id, &b.UserID, &b.Name, &amountTxt, &b.DueDate, &b.Category, &b.IsPaid, &b.Frequency, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	if b.Amount, err = decimal.NewFromString(amountTxt); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	return &b, nil
}

type pgProfiles struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func (r *pgProfiles) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	var (
		p                   entity.Profile
		income, savingsGoal string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, income::text, savings_goal::text, currency,
			notify_due_soon, notify_paid_confirmation, notify_savings_tips, updated_at
		FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &income, &savingsGoal, &p.Currency,
		&p.Notifications.DueSoon, &p.Notifications.PaidConfirmation, &p.Notifications.SavingsTips, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
	p.Currency = strings.TrimSpace(p.Currency)
	return &p, nil
}

func (r *pgProfiles) Upsert(ctx context.Context, profile *entity.Profile) (*entity.Profile, error) {
	p := *profile
	p.UpdatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, income, savings_goal, currency,
			notify_due_soon, notify_paid_confirmation, notify_savings_tips, updated_at)
		VALUES ($1, $2::numeric, $3::numeric, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			income = EXCLUDED.income,
			savings_goal = EXCLUDED.savings_goal,
			currency = EXCLUDED.currency,
			notify_due_soon = EXCLUDED.notify_due_soon,
			notify_paid_confirmation = EXCLUDED.notify_paid_confirmation,
			notify_savings_tips = EXCLUDED.notify_savings_tips,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.Income.String(), p.SavingsGoal.String(), p.Currency,
		p.Notifications.DueSoon, p.Notifications.PaidConfirmation, p.Notifications.SavingsTips, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to upsert profile", "user_id", p.UserID, "error", err)
		return nil, fmt.Errorf("%w: upsert profile: %v", common.ErrDatabase, err)
	}
	return &p, nil
}

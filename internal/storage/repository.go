package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"mindful/internal/core"
	"mindful/internal/log"
)

const timeLayout = time.RFC3339Nano

// SQLiteRepository persists periods, wallets, recurring spends and spends.
type SQLiteRepository struct {
	db *sql.DB
}

func dsn(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps transactions serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Periods

const periodColumns = `id, account_id, name, goals, target_spend, target_savings, start_at, end_at,
	closed_at, reflection, wallet_setup, created_at, updated_at`

// CreatePeriod stores a period and its materialized wallets atomically.
func (r *SQLiteRepository) CreatePeriod(ctx context.Context, p core.Period, wallets []core.Wallet) error {
	setup, err := json.Marshal(p.WalletSetup)
	if err != nil {
		return fmt.Errorf("encode wallet setup: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO periods (`+periodColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AccountID, p.Name, p.Goals, p.TargetSpend, p.TargetSavings,
		formatTime(p.StartAt), formatTime(p.EndAt), formatNullTime(p.ClosedAt),
		p.Reflection, string(setup), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert period: %w", err)
	}

	for i, w := range wallets {
		_, err = tx.ExecContext(ctx, `INSERT INTO wallets
			(id, account_id, period_id, name, spending_limit, current_balance, is_default, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.AccountID, w.PeriodID, w.Name, w.SpendingLimit, w.CurrentBalance,
			w.IsDefault, i, formatTime(w.CreatedAt), formatTime(w.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert wallet %q: %w", w.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit period: %w", err)
	}

	slog.InfoContext(ctx, "Period saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldPeriodID, p.ID,
		log.FieldAccountID, p.AccountID,
		"wallets", len(wallets))

	return nil
}

func (r *SQLiteRepository) GetPeriod(ctx context.Context, id string) (core.Period, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = ?`, id)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Period{}, fmt.Errorf("period %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Period{}, fmt.Errorf("get period: %w", err)
	}
	return p, nil
}

// ListPeriods returns the periods of an account, most recent first.
func (r *SQLiteRepository) ListPeriods(ctx context.Context, accountID string) ([]core.Period, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+periodColumns+` FROM periods
		WHERE account_id = ? ORDER BY start_at DESC, created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return collectPeriods(rows)
}

// ListOpenPeriods returns the periods that are not closed and whose window contains now.
func (r *SQLiteRepository) ListOpenPeriods(ctx context.Context, now time.Time) ([]core.Period, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+periodColumns+` FROM periods
		WHERE closed_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list open periods: %w", err)
	}
	all, err := collectPeriods(rows)
	if err != nil {
		return nil, err
	}

	// Timestamps keep their offsets, so the window check happens on parsed values.
	open := make([]core.Period, 0, len(all))
	for _, p := range all {
		if p.IsActive(now) {
			open = append(open, p)
		}
	}
	return open, nil
}

// UpdatePeriod overwrites the mutable fields of a stored period.
func (r *SQLiteRepository) UpdatePeriod(ctx context.Context, p core.Period) error {
	setup, err := json.Marshal(p.WalletSetup)
	if err != nil {
		return fmt.Errorf("encode wallet setup: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE periods SET
		name = ?, goals = ?, target_spend = ?, target_savings = ?, start_at = ?, end_at = ?,
		closed_at = ?, reflection = ?, wallet_setup = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Goals, p.TargetSpend, p.TargetSavings, formatTime(p.StartAt), formatTime(p.EndAt),
		formatNullTime(p.ClosedAt), p.Reflection, string(setup), formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update period: %w", err)
	}
	return expectAffected(res, "period", p.ID)
}

func collectPeriods(rows *sql.Rows) ([]core.Period, error) {
	defer rows.Close()

	var periods []core.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}
	return periods, nil
}

func scanPeriod(s rowScanner) (core.Period, error) {
	var (
		p                                  core.Period
		startAt, endAt, createdAt, updated string
		closedAt                           sql.NullString
		setup                              string
	)
	err := s.Scan(&p.ID, &p.AccountID, &p.Name, &p.Goals, &p.TargetSpend, &p.TargetSavings,
		&startAt, &endAt, &closedAt, &p.Reflection, &setup, &createdAt, &updated)
	if err != nil {
		return core.Period{}, err
	}

	if p.StartAt, err = parseTime(startAt); err != nil {
		return core.Period{}, err
	}
	if p.EndAt, err = parseTime(endAt); err != nil {
		return core.Period{}, err
	}
	if p.ClosedAt, err = parseNullTime(closedAt); err != nil {
		return core.Period{}, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Period{}, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Period{}, err
	}
	if err := json.Unmarshal([]byte(setup), &p.WalletSetup); err != nil {
		return core.Period{}, fmt.Errorf("decode wallet setup: %w", err)
	}
	if len(p.WalletSetup) == 0 {
		p.WalletSetup = nil
	}
	return p, nil
}

// Wallets

const walletColumns = `id, account_id, period_id, name, spending_limit, current_balance, is_default, created_at, updated_at`

// ListWallets returns the wallets of a period in setup order.
func (r *SQLiteRepository) ListWallets(ctx context.Context, periodID string) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+walletColumns+` FROM wallets
		WHERE period_id = ? ORDER BY position`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []core.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

func (r *SQLiteRepository) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = ?`, id)
	w, err := scanWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, fmt.Errorf("wallet %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func scanWallet(s rowScanner) (core.Wallet, error) {
	var (
		w                  core.Wallet
		createdAt, updated string
	)
	err := s.Scan(&w.ID, &w.AccountID, &w.PeriodID, &w.Name, &w.SpendingLimit, &w.CurrentBalance,
		&w.IsDefault, &createdAt, &updated)
	if err != nil {
		return core.Wallet{}, err
	}
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Wallet{}, err
	}
	if w.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Wallet{}, err
	}
	return w, nil
}

// Recurring spends

const recurringColumns = `id, account_id, wallet_id, start_date, description, amount, category, tags,
	schedule_frequency, day_of_week, day_of_month, is_active, created_at, updated_at`

func (r *SQLiteRepository) CreateRecurringSpend(ctx context.Context, rs core.RecurringSpend) error {
	tags, err := encodeTags(rs.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO recurring_spends (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.ID, rs.AccountID, rs.WalletID, formatTime(rs.StartDate), rs.Description, rs.Amount,
		rs.Category, tags, string(rs.ScheduleFrequency), rs.DayOfWeek, rs.DayOfMonth, rs.IsActive,
		formatTime(rs.CreatedAt), formatTime(rs.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert recurring spend: %w", err)
	}

	slog.InfoContext(ctx, "Recurring spend saved to SQLite",
		log.FieldComponent, log.ComponentStorage,
		log.FieldRecurringID, rs.ID,
		log.FieldFrequency, rs.ScheduleFrequency,
		log.FieldAmount, rs.Amount.String())

	return nil
}

func (r *SQLiteRepository) GetRecurringSpend(ctx context.Context, id string) (core.RecurringSpend, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_spends WHERE id = ?`, id)
	rs, err := scanRecurringSpend(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringSpend{}, fmt.Errorf("recurring spend %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.RecurringSpend{}, fmt.Errorf("get recurring spend: %w", err)
	}
	return rs, nil
}

func (r *SQLiteRepository) ListRecurringSpends(ctx context.Context, accountID string) ([]core.RecurringSpend, error) {
	return r.queryRecurringSpends(ctx, `SELECT `+recurringColumns+` FROM recurring_spends
		WHERE account_id = ? ORDER BY created_at`, accountID)
}

func (r *SQLiteRepository) ListActiveRecurringSpends(ctx context.Context, accountID string) ([]core.RecurringSpend, error) {
	return r.queryRecurringSpends(ctx, `SELECT `+recurringColumns+` FROM recurring_spends
		WHERE account_id = ? AND is_active = 1 ORDER BY created_at`, accountID)
}

func (r *SQLiteRepository) SetRecurringSpendActive(ctx context.Context, id string, active bool, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_spends SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, formatTime(now), id)
	if err != nil {
		return fmt.Errorf("update recurring spend: %w", err)
	}
	return expectAffected(res, "recurring spend", id)
}

func (r *SQLiteRepository) queryRecurringSpends(ctx context.Context, query string, args ...any) ([]core.RecurringSpend, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring spends: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringSpend
	for rows.Next() {
		rs, err := scanRecurringSpend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring spend: %w", err)
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring spends: %w", err)
	}
	return out, nil
}

func scanRecurringSpend(s rowScanner) (core.RecurringSpend, error) {
	var (
		rs                            core.RecurringSpend
		startDate, createdAt, updated string
		tags, frequency               string
		dayOfWeek, dayOfMonth         sql.NullInt64
	)
	err := s.Scan(&rs.ID, &rs.AccountID, &rs.WalletID, &startDate, &rs.Description, &rs.Amount,
		&rs.Category, &tags, &frequency, &dayOfWeek, &dayOfMonth, &rs.IsActive, &createdAt, &updated)
	if err != nil {
		return core.RecurringSpend{}, err
	}

	rs.ScheduleFrequency = core.Frequency(frequency)
	rs.DayOfWeek = nullIntPtr(dayOfWeek)
	rs.DayOfMonth = nullIntPtr(dayOfMonth)
	if rs.Tags, err = decodeTags(tags); err != nil {
		return core.RecurringSpend{}, err
	}
	if rs.StartDate, err = parseTime(startDate); err != nil {
		return core.RecurringSpend{}, err
	}
	if rs.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.RecurringSpend{}, err
	}
	if rs.UpdatedAt, err = parseTime(updated); err != nil {
		return core.RecurringSpend{}, err
	}
	return rs, nil
}

// Spends

const spendColumns = `id, account_id, period_id, wallet_id, recurring_spend_id, date, description,
	amount, category, tags, created_at`

// CreateSpend inserts a spend and adds its amount to the wallet balance in one transaction.
// A second spend for the same recurring occurrence yields core.ErrDuplicateSpend.
func (r *SQLiteRepository) CreateSpend(ctx context.Context, s core.Spend) error {
	tags, err := encodeTags(s.Tags)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx, `SELECT current_balance FROM wallets WHERE id = ? AND period_id = ?`,
		s.WalletID, s.PeriodID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("wallet %s: %w", s.WalletID, core.ErrWalletNotInPeriod)
	}
	if err != nil {
		return fmt.Errorf("read wallet balance: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO spends (`+spendColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.AccountID, s.PeriodID, s.WalletID, s.RecurringSpendID, formatTime(s.Date),
		s.Description, s.Amount, s.Category, tags, formatTime(s.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateSpend
		}
		return fmt.Errorf("insert spend: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE wallets SET current_balance = ?, updated_at = ? WHERE id = ?`,
		balance.Add(s.Amount), formatTime(s.CreatedAt), s.WalletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit spend: %w", err)
	}

	slog.InfoContext(ctx, "Spend saved to SQLite",
		log.NewFields().
			WithComponent(log.ComponentStorage).
			WithSpend(s.ID, s.PeriodID, s.WalletID, s.Amount.String()).
			ToSlice()...)

	return nil
}

func (r *SQLiteRepository) GetSpend(ctx context.Context, id string) (core.Spend, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+spendColumns+` FROM spends WHERE id = ?`, id)
	s, err := scanSpend(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Spend{}, fmt.Errorf("spend %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Spend{}, fmt.Errorf("get spend: %w", err)
	}
	return s, nil
}

// ListSpends returns the spends of a period ordered by date.
func (r *SQLiteRepository) ListSpends(ctx context.Context, periodID string) ([]core.Spend, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+spendColumns+` FROM spends
		WHERE period_id = ? ORDER BY date, created_at`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list spends: %w", err)
	}
	defer rows.Close()

	var spends []core.Spend
	for rows.Next() {
		s, err := scanSpend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spend: %w", err)
		}
		spends = append(spends, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spends: %w", err)
	}
	return spends, nil
}

func scanSpend(s rowScanner) (core.Spend, error) {
	var (
		sp              core.Spend
		recurringID     sql.NullString
		date, createdAt string
		tags            string
	)
	err := s.Scan(&sp.ID, &sp.AccountID, &sp.PeriodID, &sp.WalletID, &recurringID, &date,
		&sp.Description, &sp.Amount, &sp.Category, &tags, &createdAt)
	if err != nil {
		return core.Spend{}, err
	}

	if recurringID.Valid {
		id := recurringID.String
		sp.RecurringSpendID = &id
	}
	if sp.Tags, err = decodeTags(tags); err != nil {
		return core.Spend{}, err
	}
	if sp.Date, err = parseTime(date); err != nil {
		return core.Spend{}, err
	}
	if sp.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Spend{}, err
	}
	return sp, nil
}

// helpers

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

func expectAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"))
	}
	return false
}

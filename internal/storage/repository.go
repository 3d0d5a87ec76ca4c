// Package storage owns the SQLite schema and every query against it.
//
// Three tables: members (card_number unique), contributions
// (recorded_year derived from payment_date), year_summaries (one row per
// year, total recomputed from contribution rows inside the same
// transaction as every write that can affect it).
package storage

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

	"github.com/shopspring/decimal"

	"eglise/internal/core"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db *sql.DB
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the recompute and
// summary reads can run inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteRepository opens (or creates) the database at dbPath, enables
// foreign-key enforcement and applies migrations. Failure here is a
// startup precondition, not a recoverable runtime error.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection, for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// isConstraintErr reports whether err is any SQLITE_CONSTRAINT failure
// (unique, foreign key, not null).
func isConstraintErr(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

func scanMember(row interface{ Scan(...any) error }) (core.Member, error) {
	var m core.Member
	var address, phone, job sql.NullString
	err := row.Scan(&m.ID, &m.CardNumber, &m.FullName, &address, &phone, &job,
		&m.Gender, &m.MemberType, &m.CreatedAt)
	if err != nil {
		return core.Member{}, err
	}
	m.Address = address.String
	m.Phone = phone.String
	m.Job = job.String
	return m, nil
}

func scanContribution(row interface{ Scan(...any) error }) (core.Contribution, error) {
	var c core.Contribution
	var amount string
	err := row.Scan(&c.ID, &c.MemberID, &c.PaymentDate, &c.Period, &amount, &c.RecordedYear)
	if err != nil {
		return core.Contribution{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("corrupt amount %q for contribution %d: %w", amount, c.ID, err)
	}
	c.Amount = d
	return c, nil
}

func scanYearSummary(row interface{ Scan(...any) error }) (core.YearSummary, error) {
	var s core.YearSummary
	var total string
	var closedAt, note sql.NullString
	if err := row.Scan(&s.Year, &total, &closedAt, &note); err != nil {
		return core.YearSummary{}, err
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return core.YearSummary{}, fmt.Errorf("corrupt total %q for year %d: %w", total, s.Year, err)
	}
	s.Total = d
	if closedAt.Valid {
		s.ClosedAt = &closedAt.String
	}
	if note.Valid {
		s.Note = &note.String
	}
	return s, nil
}

// ── Members ──────────────────────────────────────────────────────────────

const memberColumns = "id, card_number, full_name, address, phone, job, gender, member_type, created_at"

func (r *SQLiteRepository) listMembers(ctx context.Context, query string, args ...any) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := []core.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	return r.listMembers(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY full_name ASC")
}

func (r *SQLiteRepository) ListMembersByType(ctx context.Context, memberType string) ([]core.Member, error) {
	return r.listMembers(ctx,
		"SELECT "+memberColumns+" FROM members WHERE member_type = ? ORDER BY full_name ASC",
		memberType)
}

// ListMembersByTypeWithTotal returns members of one category together with
// the sum of all their contributions. The join rows are folded in Go so
// the sum stays an exact decimal; only the rendered string truncates the
// fraction.
func (r *SQLiteRepository) ListMembersByTypeWithTotal(ctx context.Context, memberType string) ([]core.MemberWithTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.card_number, m.full_name, m.address, m.phone, m.job,
		        m.gender, m.member_type, m.created_at, c.amount
		 FROM members m
		 LEFT JOIN contributions c ON c.member_id = m.id
		 WHERE m.member_type = ?
		 ORDER BY m.full_name ASC, m.id ASC`,
		memberType)
	if err != nil {
		return nil, fmt.Errorf("query members with totals: %w", err)
	}
	defer rows.Close()

	result := []core.MemberWithTotal{}
	totals := map[int64]decimal.Decimal{}
	index := map[int64]int{}
	for rows.Next() {
		var m core.Member
		var address, phone, job, amount sql.NullString
		err := rows.Scan(&m.ID, &m.CardNumber, &m.FullName, &address, &phone, &job,
			&m.Gender, &m.MemberType, &m.CreatedAt, &amount)
		if err != nil {
			return nil, fmt.Errorf("scan member with total: %w", err)
		}
		if _, seen := index[m.ID]; !seen {
			m.Address = address.String
			m.Phone = phone.String
			m.Job = job.String
			index[m.ID] = len(result)
			result = append(result, core.MemberWithTotal{Member: m})
			totals[m.ID] = decimal.Zero
		}
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt amount %q for member %d: %w", amount.String, m.ID, err)
			}
			totals[m.ID] = totals[m.ID].Add(d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members with totals: %w", err)
	}

	for id, i := range index {
		result[i].TotalContributions = core.WholeAmount(totals[id])
	}
	return result, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id int64) (core.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?", id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, fmt.Errorf("%w: member %d", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member %d: %w", id, err)
	}
	return m, nil
}

func (r *SQLiteRepository) CreateMember(ctx context.Context, in core.MemberInput) (core.Member, error) {
	if err := in.Validate(); err != nil {
		return core.Member{}, err
	}

	now := core.Timestamp(time.Now())
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (card_number, full_name, address, phone, job, gender, member_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.CardNumber, in.FullName, in.Address, in.Phone, in.Job, in.Gender, in.MemberType, now)
	if err != nil {
		if isConstraintErr(err) {
			return core.Member{}, fmt.Errorf("%w: card number %q already exists", core.ErrConflict, in.CardNumber)
		}
		return core.Member{}, fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Member{}, fmt.Errorf("member insert id: %w", err)
	}

	slog.InfoContext(ctx, "Member created", "id", id, "card_number", in.CardNumber, "member_type", in.MemberType)

	return core.Member{
		ID:         id,
		CardNumber: in.CardNumber,
		FullName:   in.FullName,
		Address:    in.Address,
		Phone:      in.Phone,
		Job:        in.Job,
		Gender:     in.Gender,
		MemberType: in.MemberType,
		CreatedAt:  now,
	}, nil
}

// UpdateMember replaces every mutable field; id and created_at are untouched.
func (r *SQLiteRepository) UpdateMember(ctx context.Context, id int64, in core.MemberInput) (core.Member, error) {
	if err := in.Validate(); err != nil {
		return core.Member{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE members
		 SET card_number = ?, full_name = ?, address = ?, phone = ?, job = ?, gender = ?, member_type = ?
		 WHERE id = ?`,
		in.CardNumber, in.FullName, in.Address, in.Phone, in.Job, in.Gender, in.MemberType, id)
	if err != nil {
		if isConstraintErr(err) {
			return core.Member{}, fmt.Errorf("%w: card number %q already exists", core.ErrConflict, in.CardNumber)
		}
		return core.Member{}, fmt.Errorf("update member %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Member{}, fmt.Errorf("%w: member %d", core.ErrNotFound, id)
	}

	return r.GetMember(ctx, id)
}

// DeleteMember removes a member and, via the foreign-key cascade, all of
// their contributions. Deleting a nonexistent id affects zero rows and is
// not an error.
func (r *SQLiteRepository) DeleteMember(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Member deleted", "id", id)
	return nil
}

// TransferMembers bulk-reassigns the category of the given members in one
// statement, e.g. Cathekomen graduating to Communiant. Contributions stay
// attached to their member ids.
func (r *SQLiteRepository) TransferMembers(ctx context.Context, ids []int64, newType string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if !core.ValidMemberType(newType) {
		return 0, fmt.Errorf("%w: invalid member type %q, accepted values: %q, %q",
			core.ErrValidation, newType, core.TypeCommuniant, core.TypeCathekomen)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids)+1)
	args = append(args, newType)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE members SET member_type = ? WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("transfer members: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("transfer members rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Members transferred", "count", n, "new_type", newType)
	return n, nil
}

// ── Contributions ────────────────────────────────────────────────────────

const contributionColumns = "id, member_id, payment_date, period, amount, recorded_year"

func (r *SQLiteRepository) listContributions(ctx context.Context, query string, args ...any) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	defer rows.Close()

	contributions := []core.Contribution{}
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributions: %w", err)
	}
	return contributions, nil
}

func (r *SQLiteRepository) ListContributions(ctx context.Context, memberID int64) ([]core.Contribution, error) {
	return r.listContributions(ctx,
		"SELECT "+contributionColumns+" FROM contributions WHERE member_id = ? ORDER BY payment_date DESC",
		memberID)
}

func (r *SQLiteRepository) ListContributionsByYear(ctx context.Context, year int) ([]core.Contribution, error) {
	return r.listContributions(ctx,
		"SELECT "+contributionColumns+" FROM contributions WHERE recorded_year = ? ORDER BY payment_date DESC",
		year)
}

// ListContributionsByYearWithMember returns a year's contributions joined
// with the member identity, oldest first. The archive view reads
// chronologically.
func (r *SQLiteRepository) ListContributionsByYearWithMember(ctx context.Context, year int) ([]core.ContributionWithMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.member_id, m.full_name, m.card_number, c.payment_date, c.period, c.amount, c.recorded_year
		 FROM contributions c
		 JOIN members m ON m.id = c.member_id
		 WHERE c.recorded_year = ?
		 ORDER BY c.payment_date ASC`,
		year)
	if err != nil {
		return nil, fmt.Errorf("query contributions with member: %w", err)
	}
	defer rows.Close()

	result := []core.ContributionWithMember{}
	for rows.Next() {
		var c core.ContributionWithMember
		var amount string
		err := rows.Scan(&c.ID, &c.MemberID, &c.MemberName, &c.MemberCard, &c.PaymentDate, &c.Period, &amount, &c.RecordedYear)
		if err != nil {
			return nil, fmt.Errorf("scan contribution with member: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q for contribution %d: %w", amount, c.ID, err)
		}
		c.Amount = d
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributions with member: %w", err)
	}
	return result, nil
}

// CreateContribution validates and inserts a contribution, then recomputes
// the recorded year's total, both inside one transaction, so the stored
// total can never disagree with the underlying rows.
func (r *SQLiteRepository) CreateContribution(ctx context.Context, in core.ContributionInput) (core.Contribution, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Contribution{}, err
	}
	paymentDate, recordedYear, err := core.ParsePaymentDate(in.PaymentDate)
	if err != nil {
		return core.Contribution{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO contributions (member_id, payment_date, period, amount, recorded_year)
		 VALUES (?, ?, ?, ?, ?)`,
		in.MemberID, paymentDate, in.Period, amount.String(), recordedYear)
	if err != nil {
		if isConstraintErr(err) {
			return core.Contribution{}, fmt.Errorf("%w: member %d does not exist", core.ErrConflict, in.MemberID)
		}
		return core.Contribution{}, fmt.Errorf("insert contribution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Contribution{}, fmt.Errorf("contribution insert id: %w", err)
	}

	if err := refreshYearTotalTx(ctx, tx, recordedYear); err != nil {
		return core.Contribution{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.Contribution{}, fmt.Errorf("commit contribution: %w", err)
	}

	slog.InfoContext(ctx, "Contribution created",
		"id", id, "member_id", in.MemberID, "amount", amount.String(), "recorded_year", recordedYear)

	return core.Contribution{
		ID:           id,
		MemberID:     in.MemberID,
		PaymentDate:  paymentDate,
		Period:       in.Period,
		Amount:       amount,
		RecordedYear: recordedYear,
	}, nil
}

// DeleteContribution removes a contribution and recomputes its year's
// total in one transaction. NotFound when the id does not exist.
func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var year int
	err = tx.QueryRowContext(ctx, "SELECT recorded_year FROM contributions WHERE id = ?", id).Scan(&year)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: contribution %d", core.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("lookup contribution %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM contributions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete contribution %d: %w", id, err)
	}

	if err := refreshYearTotalTx(ctx, tx, year); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit contribution delete: %w", err)
	}

	slog.InfoContext(ctx, "Contribution deleted", "id", id, "recorded_year", year)
	return nil
}

// ── Year summaries ───────────────────────────────────────────────────────

// refreshYearTotalTx recomputes a year's total from its contribution rows
// and upserts the summary, leaving closed_at/note untouched. Always runs
// inside the caller's transaction.
func refreshYearTotalTx(ctx context.Context, tx dbtx, year int) error {
	rows, err := tx.QueryContext(ctx, "SELECT amount FROM contributions WHERE recorded_year = ?", year)
	if err != nil {
		return fmt.Errorf("query year %d amounts: %w", year, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return fmt.Errorf("scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("corrupt amount %q in year %d: %w", amount, year, err)
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate year %d amounts: %w", year, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO year_summaries (year, total)
		 VALUES (?, ?)
		 ON CONFLICT(year) DO UPDATE SET total = excluded.total`,
		year, total.String())
	if err != nil {
		return fmt.Errorf("upsert year %d total: %w", year, err)
	}
	return nil
}

func getYearSummary(ctx context.Context, q dbtx, year int) (*core.YearSummary, error) {
	row := q.QueryRowContext(ctx,
		"SELECT year, total, closed_at, note FROM year_summaries WHERE year = ?", year)
	s, err := scanYearSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get year summary %d: %w", year, err)
	}
	return &s, nil
}

func (r *SQLiteRepository) ListYearSummaries(ctx context.Context) ([]core.YearSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT year, total, closed_at, note FROM year_summaries ORDER BY year DESC")
	if err != nil {
		return nil, fmt.Errorf("query year summaries: %w", err)
	}
	defer rows.Close()

	summaries := []core.YearSummary{}
	for rows.Next() {
		s, err := scanYearSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan year summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate year summaries: %w", err)
	}
	return summaries, nil
}

// GetYearSummary returns nil (without error) when no summary row exists.
func (r *SQLiteRepository) GetYearSummary(ctx context.Context, year int) (*core.YearSummary, error) {
	return getYearSummary(ctx, r.db, year)
}

// stampYearClosedTx sets closed_at and note and reads back the final
// state, inside the caller's transaction. The summary row must already
// exist (refreshYearTotalTx upserts it).
func stampYearClosedTx(ctx context.Context, tx dbtx, year int, note *string) (core.YearSummary, error) {
	now := core.Timestamp(time.Now())
	if _, err := tx.ExecContext(ctx,
		"UPDATE year_summaries SET closed_at = ?, note = ? WHERE year = ?",
		now, note, year); err != nil {
		return core.YearSummary{}, fmt.Errorf("close year %d: %w", year, err)
	}

	s, err := getYearSummary(ctx, tx, year)
	if err != nil {
		return core.YearSummary{}, err
	}
	if s == nil {
		return core.YearSummary{}, fmt.Errorf("%w: summary for year %d", core.ErrNotFound, year)
	}
	return *s, nil
}

// CloseYear recomputes the total, stamps closed_at with the supplied note
// and returns the post-close state, all in one transaction, so a reader
// never observes a fresh closed_at next to a stale total.
func (r *SQLiteRepository) CloseYear(ctx context.Context, year int, note *string) (core.YearSummary, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.YearSummary{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := refreshYearTotalTx(ctx, tx, year); err != nil {
		return core.YearSummary{}, err
	}
	s, err := stampYearClosedTx(ctx, tx, year, note)
	if err != nil {
		return core.YearSummary{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.YearSummary{}, fmt.Errorf("commit year close: %w", err)
	}

	slog.InfoContext(ctx, "Year closed", "year", year, "total", s.Total.String())
	return s, nil
}

// ReopenYear clears closed_at and note, preserving the total.
func (r *SQLiteRepository) ReopenYear(ctx context.Context, year int) (core.YearSummary, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE year_summaries SET closed_at = NULL, note = NULL WHERE year = ?", year)
	if err != nil {
		return core.YearSummary{}, fmt.Errorf("reopen year %d: %w", year, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.YearSummary{}, fmt.Errorf("%w: summary for year %d", core.ErrNotFound, year)
	}

	s, err := r.GetYearSummary(ctx, year)
	if err != nil {
		return core.YearSummary{}, err
	}
	if s == nil {
		return core.YearSummary{}, fmt.Errorf("%w: summary for year %d", core.ErrNotFound, year)
	}

	slog.InfoContext(ctx, "Year reopened", "year", year)
	return *s, nil
}

// CheckAndClosePreviousYear closes the previous calendar year if it is
// not closed yet: recompute, synthesize a note from the total, stamp.
// Returns nil when the year was already closed. Callers use a non-nil
// result to drive a one-time notification. Designed to run on a daily
// timer; re-running is a safe no-op.
func (r *SQLiteRepository) CheckAndClosePreviousYear(ctx context.Context, now time.Time) (*core.YearSummary, error) {
	prevYear := now.UTC().Year() - 1

	existing, err := r.GetYearSummary(ctx, prevYear)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Closed() {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Ensure the summary exists (even at zero) with a fresh total.
	if err := refreshYearTotalTx(ctx, tx, prevYear); err != nil {
		return nil, err
	}
	s, err := getYearSummary(ctx, tx, prevYear)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: summary for year %d", core.ErrNotFound, prevYear)
	}

	note := fmt.Sprintf("CONTRIBUTIONS de l'année %d / TOTAL : %s", prevYear, core.FormatAriary(s.Total))
	closed, err := stampYearClosedTx(ctx, tx, prevYear, &note)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit auto-close: %w", err)
	}

	slog.InfoContext(ctx, "Previous year auto-closed",
		"year", prevYear, "total", closed.Total.String())
	return &closed, nil
}

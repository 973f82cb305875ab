package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkfinancial/loan-consult/internal/leads"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS consultation_requests (
	id          TEXT PRIMARY KEY,
	full_name   TEXT NOT NULL,
	phone       TEXT NOT NULL,
	email       TEXT NOT NULL,
	city        TEXT NOT NULL,
	loan_type   TEXT NOT NULL,
	loan_amount TEXT NOT NULL DEFAULT '',
	income      TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT '',
	consent     INTEGER NOT NULL DEFAULT 1,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_consultation_requests_created
	ON consultation_requests (created_at DESC);
`

const leadColumns = `id, full_name, phone, email, city, loan_type, loan_amount, income, message, consent, status, created_at`

// SQLite is a leads.Store backed by a SQLite file.
type SQLite struct {
	conn *sql.DB
	path string
	opts options
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	o := applyOptions(opts)

	if !strings.HasPrefix(path, "file:") {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		path = absPath
	}

	conn, err := sql.Open("sqlite", buildConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open lead database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY churn.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping lead database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply lead schema: %w", err)
	}

	o.logger.Info("lead database ready",
		zap.String("op", "store.OpenSQLite"),
		zap.String("path", path),
	)

	return &SQLite{conn: conn, path: path, opts: o}, nil
}

func buildConnectionString(path string) string {
	pragmas := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + sep + strings.Join(pragmas, "&")
}

// Create stores req as a pending lead.
func (s *SQLite) Create(ctx context.Context, req leads.ConsultationRequest) (leads.Lead, error) {
	lead := leads.NewLead(req, s.opts.newID(), s.opts.now())

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO consultation_requests (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.FullName, lead.Phone, lead.Email, lead.City, string(lead.LoanType),
		lead.LoanAmount, lead.Income, lead.Message, boolToInt(lead.Consent),
		string(lead.Status), lead.CreatedAt.UnixNano(),
	)
	if err != nil {
		return leads.Lead{}, fmt.Errorf("failed to insert lead: %w", err)
	}
	return lead, nil
}

// Get returns the lead with id or leads.ErrNotFound.
func (s *SQLite) Get(ctx context.Context, id string) (leads.Lead, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM consultation_requests WHERE id = ?`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leads.Lead{}, leads.ErrNotFound
	}
	if err != nil {
		return leads.Lead{}, fmt.Errorf("failed to load lead %s: %w", id, err)
	}
	return lead, nil
}

// List returns every lead, newest first; ties fall back to insertion order.
func (s *SQLite) List(ctx context.Context) ([]leads.Lead, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM consultation_requests ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	out := make([]leads.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the status of lead id.
func (s *SQLite) UpdateStatus(ctx context.Context, id string, status leads.Status) (leads.Lead, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE consultation_requests SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return leads.Lead{}, fmt.Errorf("failed to update lead %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return leads.Lead{}, fmt.Errorf("failed to update lead %s: %w", id, err)
	}
	if affected == 0 {
		return leads.Lead{}, leads.ErrNotFound
	}
	return s.Get(ctx, id)
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (leads.Lead, error) {
	var (
		lead      leads.Lead
		loanType  string
		status    string
		consent   int
		createdAt int64
	)
	err := row.Scan(&lead.ID, &lead.FullName, &lead.Phone, &lead.Email, &lead.City, &loanType,
		&lead.LoanAmount, &lead.Income, &lead.Message, &consent, &status, &createdAt)
	if err != nil {
		return leads.Lead{}, err
	}
	lead.LoanType = leads.LoanType(loanType)
	lead.Status = leads.Status(status)
	lead.Consent = consent != 0
	lead.CreatedAt = time.Unix(0, createdAt).UTC()
	return lead, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

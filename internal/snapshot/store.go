// Package snapshot persists reconciliation runs in a SQLite database:
// run provenance (source path and content digests), the reconciled
// sequence classifications, and the audit records the passes produced.
package snapshot

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/RefTax/core/errors"
	"github.com/FocuswithJustin/RefTax/core/sqlite"
	"github.com/FocuswithJustin/RefTax/core/taxonomy"
)

// Run describes one persisted reconciliation run.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	SHA256    string    `json:"sha256"`
	BLAKE3    string    `json:"blake3"`
	TaxCode   string    `json:"tax_code,omitempty"`
	SeqCount  int       `json:"seq_count"`
	RankCount int       `json:"rank_count"`
}

// AuditRecord is one reconciliation finding, serialized by the pass that
// produced it.
type AuditRecord struct {
	Pass   string `json:"pass"`
	Detail string `json:"detail"`
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		source     TEXT NOT NULL,
		sha256     TEXT NOT NULL,
		blake3     TEXT NOT NULL,
		tax_code   TEXT NOT NULL DEFAULT '',
		seq_count  INTEGER NOT NULL,
		rank_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sequences (
		run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq_id  TEXT NOT NULL,
		lineage TEXT NOT NULL,
		PRIMARY KEY (run_id, seq_id)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_records (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq    INTEGER NOT NULL,
		pass   TEXT NOT NULL,
		detail TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
}

// Store is a snapshot database handle.
type Store struct {
	db *sql.DB
}

// Open opens a snapshot database at path, creating the schema when
// missing.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enabling foreign keys")
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "creating snapshot schema")
		}
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing snapshot database for queries only.
// The schema must already be present; nothing is created or migrated.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	var n int
	if err := db.QueryRow(`SELECT count(*) FROM runs`).Scan(&n); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "verifying snapshot schema")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a reconciled taxonomy together with its provenance and
// audit trail. A blank run ID gets a fresh UUID and a zero creation time
// is set to now; the returned Run carries the assigned values along with
// the derived sequence and lineage-group counts.
func (s *Store) SaveRun(ctx context.Context, run Run, tax *taxonomy.Taxonomy, audits []AuditRecord) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.SeqCount = tax.SeqCount()
	run.RankCount = len(tax.RankUIDs())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, errors.Wrap(err, "beginning snapshot transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, sha256, blake3, tax_code, seq_count, rank_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Source, run.SHA256, run.BLAKE3,
		run.TaxCode, run.SeqCount, run.RankCount); err != nil {
		return Run{}, errors.Wrap(err, "inserting run")
	}

	seqStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sequences (run_id, seq_id, lineage) VALUES (?, ?, ?)`)
	if err != nil {
		return Run{}, errors.Wrap(err, "preparing sequence insert")
	}
	defer seqStmt.Close()
	for _, sid := range tax.SeqIDs() {
		ranks, err := tax.SeqRanks(sid)
		if err != nil {
			return Run{}, err
		}
		if _, err := seqStmt.ExecContext(ctx, run.ID, sid,
			strings.Join(ranks, taxonomy.LineageDelim)); err != nil {
			return Run{}, errors.Wrapf(err, "inserting sequence %s", sid)
		}
	}

	auditStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO audit_records (run_id, seq, pass, detail) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Run{}, errors.Wrap(err, "preparing audit insert")
	}
	defer auditStmt.Close()
	for i, rec := range audits {
		if _, err := auditStmt.ExecContext(ctx, run.ID, i, rec.Pass, rec.Detail); err != nil {
			return Run{}, errors.Wrap(err, "inserting audit record")
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, errors.Wrap(err, "committing snapshot")
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, sha256, blake3, tax_code, seq_count, rank_count
		 FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	return runs, nil
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, sha256, blake3, tax_code, seq_count, rank_count
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, errors.NewNotFound("run", id)
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run   Run
		nanos int64
	)
	err := row.Scan(&run.ID, &nanos, &run.Source, &run.SHA256, &run.BLAKE3,
		&run.TaxCode, &run.SeqCount, &run.RankCount)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt = time.Unix(0, nanos).UTC()
	return run, nil
}

// LoadTaxonomy rebuilds the taxonomy stored under a run. Identifiers and
// rank paths come back exactly as saved, unassigned markers included.
func (s *Store) LoadTaxonomy(ctx context.Context, id string) (*taxonomy.Taxonomy, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq_id, lineage FROM sequences WHERE run_id = ? ORDER BY seq_id`, id)
	if err != nil {
		return nil, errors.Wrap(err, "loading sequences")
	}
	defer rows.Close()

	tax := taxonomy.New("")
	for rows.Next() {
		var sid, lineage string
		if err := rows.Scan(&sid, &lineage); err != nil {
			return nil, errors.Wrap(err, "loading sequences")
		}
		tax.AddSeq(sid, strings.Split(lineage, taxonomy.LineageDelim))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "loading sequences")
	}
	return tax, nil
}

// Audits returns the audit records of a run in insertion order.
func (s *Store) Audits(ctx context.Context, id string) ([]AuditRecord, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pass, detail FROM audit_records WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, errors.Wrap(err, "loading audit records")
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		if err := rows.Scan(&rec.Pass, &rec.Detail); err != nil {
			return nil, errors.Wrap(err, "loading audit records")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "loading audit records")
	}
	return records, nil
}

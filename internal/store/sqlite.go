package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/yourorg/botapigen/pkg/types"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	s := &SQLiteStore{db: db}
	if err := s.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return errors.Wrap(err, "enable wal")
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			content_hash TEXT NOT NULL UNIQUE,
			size INTEGER NOT NULL,
			html TEXT NOT NULL,
			fetched_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id TEXT NOT NULL,
			catalogue TEXT NOT NULL,
			format TEXT NOT NULL,
			status TEXT NOT NULL,
			type_count INTEGER NOT NULL,
			method_count INTEGER NOT NULL,
			diagnostic_count INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_snapshot ON runs(snapshot_id);`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			run_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			entity TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY(run_id, seq)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "create schema")
		}
	}
	return nil
}

// SaveSnapshot stores html unless identical content is already stored, in
// which case the existing snapshot is returned.
func (s *SQLiteStore) SaveSnapshot(source, html string) (*types.Snapshot, error) {
	sum := sha256.Sum256([]byte(html))
	hash := hex.EncodeToString(sum[:])

	var existing string
	err := s.db.QueryRow(`SELECT id FROM snapshots WHERE content_hash=?`, hash).Scan(&existing)
	switch {
	case err == nil:
		return s.GetSnapshot(existing)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, errors.Wrap(err, "lookup snapshot")
	}

	now := time.Now().UTC()
	id, err := s.nextSnapshotID(now)
	if err != nil {
		return nil, err
	}
	snap := &types.Snapshot{ID: id, Source: source, ContentHash: hash, Size: len(html), HTML: html, FetchedAt: now}
	if _, err := s.db.Exec(`INSERT INTO snapshots(id,source,content_hash,size,html,fetched_at) VALUES(?,?,?,?,?,?)`,
		snap.ID, snap.Source, snap.ContentHash, snap.Size, snap.HTML, snap.FetchedAt); err != nil {
		return nil, errors.Wrap(err, "insert snapshot")
	}
	return snap, nil
}

func (s *SQLiteStore) nextSnapshotID(now time.Time) (string, error) {
	prefix := fmt.Sprintf("snap_%s_", now.Format("20060102"))
	rows, err := s.db.Query(`SELECT id FROM snapshots WHERE id LIKE ?`, prefix+"%")
	if err != nil {
		return "", errors.Wrap(err, "list snapshot ids")
	}
	defer rows.Close()
	maxN := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		var n int
		_, _ = fmt.Sscanf(id, prefix+"%03d", &n)
		if n > maxN {
			maxN = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, maxN+1), rows.Err()
}

func (s *SQLiteStore) GetSnapshot(id string) (*types.Snapshot, error) {
	row := s.db.QueryRow(`SELECT id,source,content_hash,size,html,fetched_at FROM snapshots WHERE id=?`, id)
	var out types.Snapshot
	if err := row.Scan(&out.ID, &out.Source, &out.ContentHash, &out.Size, &out.HTML, &out.FetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "snapshot %s", id)
		}
		return nil, errors.Wrap(err, "get snapshot")
	}
	return &out, nil
}

// ListSnapshots returns snapshot metadata, newest first, without the HTML.
func (s *SQLiteStore) ListSnapshots() ([]types.Snapshot, error) {
	rows, err := s.db.Query(`SELECT id,source,content_hash,size,fetched_at FROM snapshots ORDER BY fetched_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list snapshots")
	}
	defer rows.Close()
	var out []types.Snapshot
	for rows.Next() {
		var snap types.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Source, &snap.ContentHash, &snap.Size, &snap.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes a snapshot with its runs and their diagnostics.
func (s *SQLiteStore) DeleteSnapshot(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM diagnostics WHERE run_id IN (SELECT id FROM runs WHERE snapshot_id=?)`, id); err != nil {
		return errors.Wrap(err, "delete diagnostics")
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE snapshot_id=?`, id); err != nil {
		return errors.Wrap(err, "delete runs")
	}
	res, err := tx.Exec(`DELETE FROM snapshots WHERE id=?`, id)
	if err != nil {
		return errors.Wrap(err, "delete snapshot")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "snapshot %s", id)
	}
	return tx.Commit()
}

// SaveRun inserts run and its diagnostics in one transaction. It fills in
// ID, CreatedAt, DiagnosticCount and Status.
func (s *SQLiteStore) SaveRun(run *types.Run, diagnostics []types.Diagnostic) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.DiagnosticCount = len(diagnostics)
	run.Status = RunOK
	if len(diagnostics) > 0 {
		run.Status = RunPartial
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.Exec(`INSERT INTO runs(snapshot_id,catalogue,format,status,type_count,method_count,diagnostic_count,created_at) VALUES(?,?,?,?,?,?,?,?)`,
		run.SnapshotID, run.Catalogue, run.Format, run.Status, run.TypeCount, run.MethodCount, run.DiagnosticCount, run.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO diagnostics(run_id,seq,kind,entity,message) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, d := range diagnostics {
		if _, err := stmt.Exec(id, i+1, string(d.Kind), d.Entity, d.Message); err != nil {
			return errors.Wrap(err, "insert diagnostic")
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	run.ID = id
	return nil
}

// ListRuns returns the runs of one snapshot, newest first.
func (s *SQLiteStore) ListRuns(snapshotID string) ([]types.Run, error) {
	rows, err := s.db.Query(`SELECT id,snapshot_id,catalogue,format,status,type_count,method_count,diagnostic_count,created_at FROM runs WHERE snapshot_id=? ORDER BY id DESC`, snapshotID)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()
	out := make([]types.Run, 0)
	for rows.Next() {
		var r types.Run
		if err := rows.Scan(&r.ID, &r.SnapshotID, &r.Catalogue, &r.Format, &r.Status, &r.TypeCount, &r.MethodCount, &r.DiagnosticCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetDiagnostics(runID int64) ([]types.Diagnostic, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE id=?`, runID).Scan(&exists); err != nil {
		return nil, errors.Wrap(err, "get run")
	}
	if exists == 0 {
		return nil, errors.Wrapf(ErrNotFound, "run %d", runID)
	}
	rows, err := s.db.Query(`SELECT kind,entity,message FROM diagnostics WHERE run_id=? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "get diagnostics")
	}
	defer rows.Close()
	out := make([]types.Diagnostic, 0)
	for rows.Next() {
		var d types.Diagnostic
		var kind string
		if err := rows.Scan(&kind, &d.Entity, &d.Message); err != nil {
			return nil, err
		}
		d.Kind = types.DiagnosticKind(kind)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return errors.New("store is nil")
	}
	return s.db.Close()
}

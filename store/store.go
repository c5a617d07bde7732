// Package store persists VQE runs in sqlite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/fumin/vqe"
)

const (
	tableRuns       = "runs"
	tableIterations = "iterations"
	tableParameters = "parameters"

	queryTimeout = 3 * time.Second
)

var (
	ErrNotFound = errors.New("not found")
)

// Run is a persisted run.
type Run struct {
	ID           string
	Name         string
	Ansatz       string
	NumQubits    int
	NumElectrons int
	Created      time.Time

	Energy      float64
	Status      vqe.Status
	Evaluations int
	Parameters  []float64
	Trace       []vqe.Iteration
}

// NewRun returns a run with a new ID holding the outcome of res.
func NewRun(name, ansatz string, numQubits, numElectrons int, res vqe.Result) Run {
	r := Run{
		ID:           uuid.NewString(),
		Name:         name,
		Ansatz:       ansatz,
		NumQubits:    numQubits,
		NumElectrons: numElectrons,
		Created:      time.Now(),
		Energy:       res.Energy,
		Status:       res.Status,
		Evaluations:  res.Evaluations,
		Parameters:   res.Parameters,
		Trace:        res.Trace.Iterations,
	}
	return r
}

// Store is a sqlite database of runs.
type Store struct {
	Path string

	db *sql.DB
}

// Open opens the database at dbPath, creating it if needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, fmt.Sprintf("db %s", dbPath))
	}
	return &Store{Path: dbPath, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save saves a run, assigning it an ID if it has none.
func (s *Store) Save(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Created.IsZero() {
		r.Created = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "")
	}
	if err := saveTx(ctx, tx, r); err != nil {
		tx.Rollback()
		return "", errors.Wrap(err, "")
	}
	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "")
	}
	return r.ID, nil
}

func saveTx(ctx context.Context, tx *sql.Tx, r Run) error {
	sqlStr := fmt.Sprintf(`INSERT INTO %s (id, name, ansatz, num_qubits, num_electrons, created, energy, status, evaluations) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, tableRuns)
	args := []any{r.ID, r.Name, r.Ansatz, r.NumQubits, r.NumElectrons, r.Created.UnixNano(), r.Energy, string(r.Status), r.Evaluations}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
	}

	sqlStr = fmt.Sprintf(`INSERT INTO %s (run, i, value) VALUES (?, ?, ?)`, tableParameters)
	for i, v := range r.Parameters {
		if _, err := tx.ExecContext(ctx, sqlStr, r.ID, i, v); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%s %d", sqlStr, i))
		}
	}

	sqlStr = fmt.Sprintf(`INSERT INTO %s (run, i, energy, delta, duration) VALUES (?, ?, ?, ?, ?)`, tableIterations)
	for _, it := range r.Trace {
		if _, err := tx.ExecContext(ctx, sqlStr, r.ID, it.Index, it.Energy, it.Delta, int64(it.Duration)); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%s %d", sqlStr, it.Index))
		}
	}
	return nil
}

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	sqlStr := fmt.Sprintf(`SELECT id, name, ansatz, num_qubits, num_electrons, created, energy, status, evaluations FROM %s WHERE id=?`, tableRuns)
	r, err := scanRun(s.db.QueryRowContext(ctx, sqlStr, id))
	switch {
	case err == sql.ErrNoRows:
		return Run{}, errors.Wrap(ErrNotFound, id)
	case err != nil:
		return Run{}, errors.Wrap(err, "")
	}

	if r.Parameters, err = s.parameters(ctx, id); err != nil {
		return Run{}, errors.Wrap(err, "")
	}
	if r.Trace, err = s.trace(ctx, id); err != nil {
		return Run{}, errors.Wrap(err, "")
	}
	return r, nil
}

// List returns the runs of a molecule or model, or of all of them if name is empty, oldest first.
// Parameters and traces are not loaded.
func (s *Store) List(ctx context.Context, name string) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	sqlStr := fmt.Sprintf(`SELECT id, name, ansatz, num_qubits, num_electrons, created, energy, status, evaluations FROM %s WHERE ?='' OR name=? ORDER BY created, id`, tableRuns)
	rows, err := s.db.QueryContext(ctx, sqlStr, name, name)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var created int64
	var status string
	if err := row.Scan(&r.ID, &r.Name, &r.Ansatz, &r.NumQubits, &r.NumElectrons, &created, &r.Energy, &status, &r.Evaluations); err != nil {
		return Run{}, err
	}
	r.Created = time.Unix(0, created)
	r.Status = vqe.Status(status)
	return r, nil
}

func (s *Store) parameters(ctx context.Context, id string) ([]float64, error) {
	sqlStr := fmt.Sprintf(`SELECT value FROM %s WHERE run=? ORDER BY i`, tableParameters)
	rows, err := s.db.QueryContext(ctx, sqlStr, id)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	params := make([]float64, 0)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "")
		}
		params = append(params, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return params, nil
}

func (s *Store) trace(ctx context.Context, id string) ([]vqe.Iteration, error) {
	sqlStr := fmt.Sprintf(`SELECT i, energy, delta, duration FROM %s WHERE run=? ORDER BY i`, tableIterations)
	rows, err := s.db.QueryContext(ctx, sqlStr, id)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	trace := make([]vqe.Iteration, 0)
	for rows.Next() {
		var it vqe.Iteration
		var d int64
		if err := rows.Scan(&it.Index, &it.Energy, &it.Delta, &d); err != nil {
			return nil, errors.Wrap(err, "")
		}
		it.Duration = time.Duration(d)
		trace = append(trace, it)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return trace, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, name TEXT, ansatz TEXT, num_qubits INTEGER, num_electrons INTEGER, created INTEGER, energy REAL, status TEXT, evaluations INTEGER) STRICT`, tableRuns),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT REFERENCES %s(id) ON DELETE CASCADE, i INTEGER, value REAL, PRIMARY KEY (run, i)) STRICT`, tableParameters, tableRuns),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT REFERENCES %s(id) ON DELETE CASCADE, i INTEGER, energy REAL, delta REAL, duration INTEGER, PRIMARY KEY (run, i)) STRICT`, tableIterations, tableRuns),
	}
	for _, sqlStr := range stmts {
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	return nil
}

// Delete deletes the run with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`DELETE FROM %s WHERE id=?`, tableRuns)
	res, err := s.db.ExecContext(ctx, sqlStr, id)
	if err != nil {
		return errors.Wrap(err, "")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "")
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, id)
	}
	return nil
}

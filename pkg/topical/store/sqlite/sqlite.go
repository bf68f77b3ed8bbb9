package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/topical/pkg/topical/internalerr"
	"github.com/cognicore/topical/pkg/topical/store"
)

// timeLayout is fixed width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Runs and model rows cascade from models
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS models (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	stopwords TEXT,
	options_json TEXT,
	train_docs INTEGER DEFAULT 0,
	alpha REAL NOT NULL,
	fit_prior INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_models_created ON models(created_at);

CREATE TABLE IF NOT EXISTS model_terms (
	model_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	term TEXT NOT NULL,
	idf REAL NOT NULL,
	PRIMARY KEY(model_id, idx),
	FOREIGN KEY(model_id) REFERENCES models(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS model_classes (
	model_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	category TEXT NOT NULL,
	doc_count REAL NOT NULL,
	log_prior TEXT NOT NULL,
	feature_log_prob TEXT NOT NULL,
	PRIMARY KEY(model_id, idx),
	FOREIGN KEY(model_id) REFERENCES models(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	model_id TEXT NOT NULL,
	split TEXT NOT NULL,
	created_at TEXT NOT NULL,
	accuracy REAL NOT NULL,
	report_json TEXT,
	confusion TEXT,
	FOREIGN KEY(model_id) REFERENCES models(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model_id, created_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveModel inserts or replaces a model together with its terms and classes
func (s *sqliteStore) SaveModel(ctx context.Context, m store.Model) error {
	if m.ID == "" {
		return fmt.Errorf("%w: model without id", internalerr.ErrInvalidInput)
	}
	if len(m.Terms) != len(m.IDF) {
		return fmt.Errorf("%w: %d terms, %d idf weights", internalerr.ErrInvalidInput, len(m.Terms), len(m.IDF))
	}
	k := len(m.Categories)
	if len(m.ClassCount) != k || len(m.ClassLogPrior) != k || len(m.FeatureLogProb) != k {
		return fmt.Errorf("%w: inconsistent class dimensions for model %s", internalerr.ErrInvalidInput, m.ID)
	}

	stopwords, err := json.Marshal(m.Stopwords)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO models (id, created_at, stopwords, options_json, train_docs, alpha, fit_prior)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	created_at=excluded.created_at,
	stopwords=excluded.stopwords,
	options_json=excluded.options_json,
	train_docs=excluded.train_docs,
	alpha=excluded.alpha,
	fit_prior=excluded.fit_prior;
`
	if _, err := tx.ExecContext(ctx, stmt,
		m.ID,
		m.CreatedAt.UTC().Format(timeLayout),
		string(stopwords),
		m.OptionsJSON,
		m.TrainDocs,
		m.Alpha,
		boolToInt(m.FitPrior),
	); err != nil {
		return err
	}

	if err := replaceModelTerms(ctx, tx, m); err != nil {
		return err
	}
	if err := replaceModelClasses(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceModelTerms(ctx context.Context, tx *sql.Tx, m store.Model) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM model_terms WHERE model_id=?`, m.ID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO model_terms (model_id, idx, term, idf) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, term := range m.Terms {
		if _, err := stmt.ExecContext(ctx, m.ID, i, term, m.IDF[i]); err != nil {
			return err
		}
	}
	return nil
}

func replaceModelClasses(ctx context.Context, tx *sql.Tx, m store.Model) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM model_classes WHERE model_id=?`, m.ID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO model_classes (model_id, idx, category, doc_count, log_prior, feature_log_prob)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, cat := range m.Categories {
		flp, err := json.Marshal(m.FeatureLogProb[i])
		if err != nil {
			return fmt.Errorf("encode class %s: %w", cat, err)
		}
		// log priors may be -Inf for classes without training documents
		prior := strconv.FormatFloat(m.ClassLogPrior[i], 'g', -1, 64)
		if _, err := stmt.ExecContext(ctx, m.ID, i, cat, m.ClassCount[i], prior, string(flp)); err != nil {
			return err
		}
	}
	return nil
}

// GetModel retrieves a model by ID
func (s *sqliteStore) GetModel(ctx context.Context, id string) (store.Model, error) {
	var (
		m         store.Model
		createdAt string
		stopwords sql.NullString
		options   sql.NullString
		fitPrior  int
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, created_at, stopwords, options_json, train_docs, alpha, fit_prior
FROM models WHERE id = ?`, id).Scan(&m.ID, &createdAt, &stopwords, &options, &m.TrainDocs, &m.Alpha, &fitPrior)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Model{}, fmt.Errorf("model %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Model{}, err
	}

	m.CreatedAt = parseTime(createdAt)
	m.OptionsJSON = options.String
	m.FitPrior = fitPrior != 0
	if stopwords.Valid && stopwords.String != "" {
		if err := json.Unmarshal([]byte(stopwords.String), &m.Stopwords); err != nil {
			return store.Model{}, fmt.Errorf("decode stopwords of model %s: %w", id, err)
		}
	}

	if err := s.loadTerms(ctx, &m); err != nil {
		return store.Model{}, err
	}
	if err := s.loadClasses(ctx, &m); err != nil {
		return store.Model{}, err
	}
	return m, nil
}

func (s *sqliteStore) loadTerms(ctx context.Context, m *store.Model) error {
	rows, err := s.db.QueryContext(ctx, `SELECT term, idf FROM model_terms WHERE model_id=? ORDER BY idx`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var term string
		var idf float64
		if err := rows.Scan(&term, &idf); err != nil {
			return err
		}
		m.Terms = append(m.Terms, term)
		m.IDF = append(m.IDF, idf)
	}
	return rows.Err()
}

func (s *sqliteStore) loadClasses(ctx context.Context, m *store.Model) error {
	rows, err := s.db.QueryContext(ctx, `
SELECT category, doc_count, log_prior, feature_log_prob
FROM model_classes WHERE model_id=? ORDER BY idx`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cat      string
			count    float64
			priorStr string
			flpJSON  string
		)
		if err := rows.Scan(&cat, &count, &priorStr, &flpJSON); err != nil {
			return err
		}
		prior, err := strconv.ParseFloat(priorStr, 64)
		if err != nil {
			return fmt.Errorf("decode log prior of class %s: %w", cat, err)
		}
		var flp []float64
		if err := json.Unmarshal([]byte(flpJSON), &flp); err != nil {
			return fmt.Errorf("decode feature log probabilities of class %s: %w", cat, err)
		}
		m.Categories = append(m.Categories, cat)
		m.ClassCount = append(m.ClassCount, count)
		m.ClassLogPrior = append(m.ClassLogPrior, prior)
		m.FeatureLogProb = append(m.FeatureLogProb, flp)
	}
	return rows.Err()
}

// LatestModel returns the most recently created model
func (s *sqliteStore) LatestModel(ctx context.Context) (store.Model, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM models ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Model{}, fmt.Errorf("latest model: %w", internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Model{}, err
	}
	return s.GetModel(ctx, id)
}

// ListModels returns model summaries, newest first
func (s *sqliteStore) ListModels(ctx context.Context) ([]store.ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT m.id, m.created_at, m.train_docs,
	(SELECT COUNT(*) FROM model_terms t WHERE t.model_id = m.id)
FROM models m
ORDER BY m.created_at DESC, m.id DESC`)
	if err != nil {
		return nil, err
	}

	var infos []store.ModelInfo
	for rows.Next() {
		var (
			info      store.ModelInfo
			createdAt string
		)
		if err := rows.Scan(&info.ID, &createdAt, &info.TrainDocs, &info.VocabSize); err != nil {
			rows.Close()
			return nil, err
		}
		info.CreatedAt = parseTime(createdAt)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range infos {
		cats, err := s.categories(ctx, infos[i].ID)
		if err != nil {
			return nil, err
		}
		infos[i].Categories = cats
	}
	return infos, nil
}

func (s *sqliteStore) categories(ctx context.Context, modelID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category FROM model_classes WHERE model_id=? ORDER BY idx`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var cat string
		if err := rows.Scan(&cat); err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

// SaveRun inserts an evaluation run for an existing model
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without id", internalerr.ErrInvalidInput)
	}
	confusion, err := json.Marshal(r.Confusion)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM models WHERE id=?`, r.ModelID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s: model %s: %w", r.ID, r.ModelID, internalerr.ErrNotFound)
	}
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO runs (id, model_id, split, created_at, accuracy, report_json, confusion)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	split=excluded.split,
	created_at=excluded.created_at,
	accuracy=excluded.accuracy,
	report_json=excluded.report_json,
	confusion=excluded.confusion;
`
	if _, err := tx.ExecContext(ctx, stmt,
		r.ID,
		r.ModelID,
		r.Split,
		r.CreatedAt.UTC().Format(timeLayout),
		r.Accuracy,
		r.ReportJSON,
		string(confusion),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// RunsForModel returns the runs of a model, oldest first
func (s *sqliteStore) RunsForModel(ctx context.Context, modelID string) ([]store.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, model_id, split, created_at, accuracy, report_json, confusion
FROM runs WHERE model_id=? ORDER BY created_at, id`, modelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []store.Run{}
	for rows.Next() {
		var (
			r         store.Run
			createdAt string
			report    sql.NullString
			confusion sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ModelID, &r.Split, &createdAt, &r.Accuracy, &report, &confusion); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(createdAt)
		r.ReportJSON = report.String
		if confusion.Valid && confusion.String != "" {
			if err := json.Unmarshal([]byte(confusion.String), &r.Confusion); err != nil {
				return nil, fmt.Errorf("decode confusion of run %s: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

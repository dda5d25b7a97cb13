package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/reviews-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS harvests (
	id           TEXT PRIMARY KEY,
	asin         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	review_count INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reviews (
	id            TEXT PRIMARY KEY,
	harvest_id    TEXT NOT NULL REFERENCES harvests(id),
	position      INTEGER NOT NULL,
	source_id     TEXT NOT NULL,
	record_id     TEXT NOT NULL,
	author_name   TEXT,
	rating        INTEGER NOT NULL DEFAULT 0,
	title         TEXT,
	body          TEXT,
	verified      INTEGER NOT NULL DEFAULT 0,
	date          TEXT,
	variant       TEXT,
	helpful_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_harvests_asin ON harvests(asin);
CREATE INDEX IF NOT EXISTS idx_harvests_status ON harvests(status);
CREATE INDEX IF NOT EXISTS idx_reviews_harvest_id ON reviews(harvest_id);
CREATE INDEX IF NOT EXISTS idx_reviews_source_id ON reviews(source_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateHarvest(ctx context.Context, asin string) (*model.Harvest, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO harvests (id, asin, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, asin, string(model.HarvestStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert harvest")
	}

	return &model.Harvest{
		ID:        id,
		ASIN:      asin,
		Status:    model.HarvestStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteHarvest(ctx context.Context, harvestID string, reviewCount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE harvests SET status = ?, review_count = ?, updated_at = ? WHERE id = ?`,
		string(model.HarvestStatusComplete), reviewCount, time.Now().UTC(), harvestID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete harvest %s", harvestID)
	}
	return checkRowsAffected(res, harvestID)
}

func (s *SQLiteStore) FailHarvest(ctx context.Context, harvestID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE harvests SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.HarvestStatusFailed), time.Now().UTC(), harvestID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail harvest %s", harvestID)
	}
	return checkRowsAffected(res, harvestID)
}

func (s *SQLiteStore) ListHarvests(ctx context.Context, limit int) ([]model.Harvest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, asin, status, review_count, created_at, updated_at
		 FROM harvests ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list harvests")
	}
	defer rows.Close()

	var harvests []model.Harvest
	for rows.Next() {
		var h model.Harvest
		var status string
		if err := rows.Scan(&h.ID, &h.ASIN, &status, &h.ReviewCount, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan harvest")
		}
		h.Status = model.HarvestStatus(status)
		harvests = append(harvests, h)
	}
	return harvests, eris.Wrap(rows.Err(), "sqlite: iterate harvests")
}

func (s *SQLiteStore) SaveReviews(ctx context.Context, harvestID string, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO reviews (id, harvest_id, position, source_id, record_id, author_name,
		 rating, title, body, verified, date, variant, helpful_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert review")
	}
	defer stmt.Close()

	for i, r := range reviews {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), harvestID, i, r.SourceID, r.RecordID, r.AuthorName,
			r.Rating, r.Title, r.Body, r.Verified, r.Date, r.Variant, r.HelpfulCount,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert review %s", r.RecordID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit reviews")
}

func (s *SQLiteStore) GetReviews(ctx context.Context, asin string) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.source_id, r.record_id, r.author_name, r.rating, r.title, r.body,
		        r.verified, r.date, r.variant, r.helpful_count
		 FROM reviews r
		 WHERE r.harvest_id = (
		 	SELECT id FROM harvests
		 	WHERE asin = ? AND status = 'complete'
		 	ORDER BY created_at DESC, id DESC LIMIT 1
		 )
		 ORDER BY r.position`, asin)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get reviews for %s", asin)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// rowScanner abstracts sql.Rows for review scanning.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanReviews(rows rowScanner) ([]model.Review, error) {
	var reviews []model.Review
	for rows.Next() {
		var (
			r                   model.Review
			author, title, body sql.NullString
			date, variant       sql.NullString
		)
		err := rows.Scan(&r.SourceID, &r.RecordID, &author, &r.Rating, &title, &body,
			&r.Verified, &date, &variant, &r.HelpfulCount)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan review")
		}
		r.AuthorName = nullableString(author)
		r.Title = nullableString(title)
		r.Body = nullableString(body)
		r.Date = nullableString(date)
		r.Variant = nullableString(variant)
		reviews = append(reviews, r)
	}
	return reviews, eris.Wrap(rows.Err(), "store: iterate reviews")
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: harvest %s not found", id)
	}
	return nil
}

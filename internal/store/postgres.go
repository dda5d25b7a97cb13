package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/reviews-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which keeps the Postgres driver unit-testable without a server.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS harvests (
	id           TEXT PRIMARY KEY,
	asin         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	review_count INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
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
	verified      BOOLEAN NOT NULL DEFAULT FALSE,
	date          TEXT,
	variant       TEXT,
	helpful_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_harvests_asin ON harvests(asin);
CREATE INDEX IF NOT EXISTS idx_harvests_status ON harvests(status);
CREATE INDEX IF NOT EXISTS idx_reviews_harvest_id ON reviews(harvest_id);
CREATE INDEX IF NOT EXISTS idx_reviews_source_id ON reviews(source_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateHarvest(ctx context.Context, asin string) (*model.Harvest, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO harvests (id, asin, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, asin, string(model.HarvestStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert harvest")
	}

	return &model.Harvest{
		ID:        id,
		ASIN:      asin,
		Status:    model.HarvestStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteHarvest(ctx context.Context, harvestID string, reviewCount int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE harvests SET status = $1, review_count = $2, updated_at = $3 WHERE id = $4`,
		string(model.HarvestStatusComplete), reviewCount, time.Now().UTC(), harvestID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete harvest %s", harvestID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: harvest %s not found", harvestID)
	}
	return nil
}

func (s *PostgresStore) FailHarvest(ctx context.Context, harvestID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE harvests SET status = $1, updated_at = $2 WHERE id = $3`,
		string(model.HarvestStatusFailed), time.Now().UTC(), harvestID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail harvest %s", harvestID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: harvest %s not found", harvestID)
	}
	return nil
}

func (s *PostgresStore) ListHarvests(ctx context.Context, limit int) ([]model.Harvest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, asin, status, review_count, created_at, updated_at
		 FROM harvests ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list harvests")
	}
	defer rows.Close()

	var harvests []model.Harvest
	for rows.Next() {
		var h model.Harvest
		var status string
		if err := rows.Scan(&h.ID, &h.ASIN, &status, &h.ReviewCount, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan harvest")
		}
		h.Status = model.HarvestStatus(status)
		harvests = append(harvests, h)
	}
	return harvests, eris.Wrap(rows.Err(), "postgres: iterate harvests")
}

func (s *PostgresStore) SaveReviews(ctx context.Context, harvestID string, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i, r := range reviews {
		_, err := tx.Exec(ctx,
			`INSERT INTO reviews (id, harvest_id, position, source_id, record_id, author_name,
			 rating, title, body, verified, date, variant, helpful_count)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			uuid.New().String(), harvestID, i, r.SourceID, r.RecordID, r.AuthorName,
			r.Rating, r.Title, r.Body, r.Verified, r.Date, r.Variant, r.HelpfulCount,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert review %s", r.RecordID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit reviews")
}

func (s *PostgresStore) GetReviews(ctx context.Context, asin string) ([]model.Review, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.source_id, r.record_id, r.author_name, r.rating, r.title, r.body,
		        r.verified, r.date, r.variant, r.helpful_count
		 FROM reviews r
		 WHERE r.harvest_id = (
		 	SELECT id FROM harvests
		 	WHERE asin = $1 AND status = 'complete'
		 	ORDER BY created_at DESC, id DESC LIMIT 1
		 )
		 ORDER BY r.position`, asin)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get reviews for %s", asin)
	}
	defer rows.Close()

	return scanReviews(rows)
}

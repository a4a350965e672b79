package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/service"
)

const uniqueViolation = "23505"

type Store struct {
	conn   *dbr.Connection
	sess   *dbr.Session
	runner dbr.SessionRunner
	tx     *dbr.Tx
	logger *zap.Logger
}

var _ service.Store = (*Store)(nil)

func New(dsn string, logger *zap.Logger) (*Store, error) {
	conn, err := dbr.Open("postgres", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// set up connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sess := conn.NewSession(nil)

	logger.Info("successfully connected to PostgreSQL")

	return &Store{
		conn:   conn,
		sess:   sess,
		runner: sess,
		logger: logger,
	}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) BeginTx(ctx context.Context) (*dbr.Tx, error) {
	return s.sess.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
}

// WithTx runs fn on a store bound to a single transaction. Nested calls reuse
// the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(service.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	bound := &Store{
		conn:   s.conn,
		sess:   s.sess,
		runner: tx,
		tx:     tx,
		logger: s.logger,
	}

	if err := fn(bound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// translate maps driver errors the services care about.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", service.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomoncle/storekit/types"
	"github.com/uptrace/bun"
)

// Operation is a staged write applied against the session's current IDB.
type Operation func(ctx context.Context, db bun.IDB) error

// Session is the persistence session shared by the repositories of one unit
// of work. It holds at most one transaction and the writes staged on it.
//
// A Session is not safe for concurrent use.
type Session struct {
	db      *bun.DB
	tx      *bun.Tx
	pending []Operation
}

func NewSession(db *bun.DB) *Session {
	return &Session{db: db}
}

// DB returns the connection pool.
func (s *Session) DB() *bun.DB { return s.db }

// IDB returns the held transaction, or the pool in autocommit mode.
func (s *Session) IDB() bun.IDB {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Session) Mode() types.Mode {
	if s.tx != nil {
		return types.ModeTransactional
	}
	return types.ModeAutocommit
}

// Pending reports the number of staged writes not yet flushed.
func (s *Session) Pending() int { return len(s.pending) }

// Stage queues op. In autocommit mode the queue is flushed before Stage
// returns, so the write is durable unless an error is returned.
func (s *Session) Stage(ctx context.Context, op Operation) error {
	s.pending = append(s.pending, op)
	if s.tx == nil {
		return s.Flush(ctx)
	}
	return nil
}

// Flush applies staged writes in call order and clears the queue whatever
// the outcome. Without a held transaction the writes run inside their own
// short transaction.
func (s *Session) Flush(ctx context.Context) error {
	ops := s.pending
	s.pending = nil
	if len(ops) == 0 {
		return nil
	}
	if s.tx != nil {
		return applyAll(ctx, s.tx, ops)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return applyAll(ctx, tx, ops)
	})
}

func applyAll(ctx context.Context, db bun.IDB, ops []Operation) error {
	for _, op := range ops {
		if err := op(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) begin(ctx context.Context, opts *sql.TxOptions) error {
	if s.tx != nil {
		return fmt.Errorf("%w: transaction already held by session", ErrInvalidState)
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	s.tx = &tx
	s.pending = nil
	return nil
}

// commit commits the held transaction and releases it. A failed commit is
// followed by a best-effort rollback.
func (s *Session) commit() error {
	if s.tx == nil {
		return fmt.Errorf("%w: no transaction held by session", ErrInvalidState)
	}
	tx := s.tx
	s.tx = nil
	s.pending = nil
	if err := tx.Commit(); err != nil {
		_ = rollbackQuietly(tx)
		return err
	}
	return nil
}

// rollback discards staged writes and rolls back the held transaction.
func (s *Session) rollback() error {
	if s.tx == nil {
		return fmt.Errorf("%w: no transaction held by session", ErrInvalidState)
	}
	tx := s.tx
	s.tx = nil
	s.pending = nil
	return rollbackQuietly(tx)
}

// rollbackQuietly ignores sql.ErrTxDone, which only means the driver has
// already ended the transaction.
func rollbackQuietly(tx *bun.Tx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

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

	"github.com/google/uuid"
	"github.com/tomoncle/storekit/database"
	"github.com/tomoncle/storekit/types"
	"github.com/uptrace/bun"
)

// Option configures a UnitOfWork.
type Option func(*UnitOfWork)

func WithLogger(logger database.Logger) Option {
	return func(u *UnitOfWork) {
		if logger != nil {
			u.logger = logger
		}
	}
}

func WithMetrics(metrics *database.Metrics) Option {
	return func(u *UnitOfWork) { u.metrics = metrics }
}

// WithTxOptions sets the options passed to BeginTx.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(u *UnitOfWork) { u.txOptions = opts }
}

// UnitOfWork owns one Session and brackets the writes made through it in at
// most one transaction at a time. It is Idle until BeginTransaction and
// returns to Idle on commit, rollback or Close.
//
// A UnitOfWork is meant for a single logical caller; it does no locking.
type UnitOfWork struct {
	id        string
	session   *Session
	state     types.TxState
	closed    bool
	txOptions *sql.TxOptions
	logger    database.Logger
	metrics   *database.Metrics
}

func NewUnitOfWork(db *bun.DB, opts ...Option) *UnitOfWork {
	u := &UnitOfWork{
		id:      uuid.NewString(),
		session: NewSession(db),
		state:   types.TxIdle,
		logger:  database.GetLogger(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *UnitOfWork) ID() string { return u.id }

// Session returns the session shared by every repository of this unit of work.
func (u *UnitOfWork) Session() *Session { return u.session }

func (u *UnitOfWork) State() types.TxState { return u.state }

func (u *UnitOfWork) Mode() types.Mode { return u.session.Mode() }

func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	if err := u.checkOpen("begin"); err != nil {
		return err
	}
	if u.state == types.TxActive {
		return fmt.Errorf("%w: begin while a transaction is active", ErrInvalidState)
	}
	if err := u.session.begin(ctx, u.txOptions); err != nil {
		u.logger.Error("Failed to begin transaction", "uow", u.id, "error", err)
		return err
	}
	u.state = types.TxActive
	u.logger.Debug("Transaction started", "uow", u.id)
	return nil
}

// CommitTransaction flushes the staged writes on the transaction and commits
// it. If either step fails the transaction is rolled back and the error is
// returned. The unit of work is Idle afterwards in every case.
func (u *UnitOfWork) CommitTransaction(ctx context.Context) error {
	if err := u.requireActive("commit"); err != nil {
		return err
	}
	u.state = types.TxIdle

	staged := u.session.Pending()
	if err := u.session.Flush(ctx); err != nil {
		if rbErr := u.session.rollback(); rbErr != nil {
			u.logger.Error("Failed to roll back after flush error", "uow", u.id, "error", rbErr)
		}
		u.metrics.ObserveTransaction(database.TxOutcomeCommitFailed)
		u.logger.Warn("Transaction rolled back, flush failed", "uow", u.id, "staged", staged, "error", err)
		return err
	}
	if err := u.session.commit(); err != nil {
		u.metrics.ObserveTransaction(database.TxOutcomeCommitFailed)
		u.logger.Warn("Transaction commit failed", "uow", u.id, "error", err)
		return err
	}
	u.metrics.ObserveTransaction(database.TxOutcomeCommit)
	u.logger.Debug("Transaction committed", "uow", u.id, "staged", staged)
	return nil
}

// RollbackTransaction discards staged writes and rolls the transaction back.
func (u *UnitOfWork) RollbackTransaction(ctx context.Context) error {
	if err := u.requireActive("rollback"); err != nil {
		return err
	}
	u.state = types.TxIdle

	discarded := u.session.Pending()
	err := u.session.rollback()
	u.metrics.ObserveTransaction(database.TxOutcomeRollback)
	if err != nil {
		u.logger.Error("Transaction rollback failed", "uow", u.id, "error", err)
		return err
	}
	u.logger.Debug("Transaction rolled back", "uow", u.id, "discarded", discarded)
	return nil
}

// SaveChanges flushes staged writes on the open transaction without
// committing, making engine-assigned keys visible to the caller. Outside a
// transaction writes are already flushed and SaveChanges does nothing.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	if err := u.checkOpen("save changes"); err != nil {
		return err
	}
	return u.session.Flush(ctx)
}

// Do runs fn inside a transaction. It commits when fn returns nil and rolls
// back when fn returns an error or panics; a panic is re-raised after the
// rollback.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := u.BeginTransaction(ctx); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := u.RollbackTransaction(ctx); rbErr != nil {
				u.logger.Error("Failed to roll back after panic", "uow", u.id, "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := u.RollbackTransaction(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return u.CommitTransaction(ctx)
}

// Close releases a held transaction without committing it. Lifecycle calls
// made after Close fail with ErrInvalidState. Close is idempotent.
func (u *UnitOfWork) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.state != types.TxActive {
		return nil
	}
	u.state = types.TxIdle
	err := u.session.rollback()
	u.metrics.ObserveTransaction(database.TxOutcomeDisposed)
	if err != nil {
		u.logger.Error("Failed to release transaction on close", "uow", u.id, "error", err)
		return err
	}
	u.logger.Debug("Transaction released on close", "uow", u.id)
	return nil
}

func (u *UnitOfWork) checkOpen(action string) error {
	if u.closed {
		return fmt.Errorf("%w: %s on a closed unit of work", ErrInvalidState, action)
	}
	return nil
}

func (u *UnitOfWork) requireActive(action string) error {
	if err := u.checkOpen(action); err != nil {
		return err
	}
	if u.state != types.TxActive {
		return fmt.Errorf("%w: %s without an active transaction", ErrInvalidState, action)
	}
	return nil
}

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

package database

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

type txKey struct{}

// TxManager runs units of work in a transaction carried by the context.
type TxManager struct {
	db   *bun.DB
	opts *sql.TxOptions
}

func NewTxManager(db *bun.DB) *TxManager {
	return &TxManager{db: db}
}

// WithOptions returns a copy of the manager that begins transactions with opts.
func (m *TxManager) WithOptions(opts *sql.TxOptions) *TxManager {
	return &TxManager{db: m.db, opts: opts}
}

// Do runs fn in a transaction. When ctx already carries one, fn joins it and
// the outer call decides whether to commit. A returned error or a panic rolls
// the transaction back.
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return m.db.RunInTx(ctx, m.opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// TxFromContext returns the transaction carried by ctx.
func TxFromContext(ctx context.Context) (bun.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(bun.Tx)
	return tx, ok
}

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db *bun.DB) bun.IDB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db
}

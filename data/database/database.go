// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
)

// types

type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
}

var (
	ErrNoPool = errors.New("database pool has not been configured")
)

// Private

var pool PgxIface
var openTransactions = make(map[string]string)
var openTransactionsLock sync.Mutex

func track(id, caller string) {
	openTransactionsLock.Lock()
	defer openTransactionsLock.Unlock()
	openTransactions[id] = caller
}

func untrack(id string) {
	openTransactionsLock.Lock()
	defer openTransactionsLock.Unlock()
	delete(openTransactions, id)
}

// Public

func SetPool(myPool PgxIface) {
	openTransactionsLock.Lock()
	openTransactions = make(map[string]string)
	openTransactionsLock.Unlock()
	pool = myPool
}

// Configured reports whether a pool has been set
func Configured() bool {
	return pool != nil
}

func Connect(ctx context.Context, url string) error {
	myPool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not connect to pool")
		return err
	}
	if err = myPool.Ping(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not ping database server")
		return err
	}
	SetPool(myPool)
	return nil
}

// LogOpenTransactions writes an INFO log for each open transaction
func LogOpenTransactions() {
	openTransactionsLock.Lock()
	defer openTransactionsLock.Unlock()
	for k, v := range openTransactions {
		log.Info().Str("TrxId", k).Str("Caller", v).Msg("open transaction")
	}
}

// OpenTransactions returns the number of transactions that have been started but not committed or rolled back
func OpenTransactions() int {
	openTransactionsLock.Lock()
	defer openTransactionsLock.Unlock()
	return len(openTransactions)
}

// TrxForRole begins a transaction and switches to role. An empty role keeps the role of the connection.
func TrxForRole(ctx context.Context, role string) (pgx.Tx, error) {
	if pool == nil {
		return nil, ErrNoPool
	}

	trx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	// record transactions in openTransaction log
	_, file, lineno, ok := runtime.Caller(1)
	caller := fmt.Sprintf("[%v] %s:%d", ok, file, lineno)
	trxID := uuid.New().String()
	track(trxID, caller)

	wrappedTrx := &TrackedTx{
		id:   trxID,
		role: role,
		tx:   trx,
	}

	if role == "" {
		return wrappedTrx, nil
	}

	// NOTE: SET ROLE cannot take a bind parameter so the identifier is sanitized here
	ident := pgx.Identifier{role}
	sql := fmt.Sprintf("SET ROLE %s", ident.Sanitize())
	if _, err = wrappedTrx.Exec(ctx, sql); err != nil {
		log.Error().Stack().Err(err).Str("Role", role).Msg("could not switch role")
		if err := wrappedTrx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	return wrappedTrx, nil
}

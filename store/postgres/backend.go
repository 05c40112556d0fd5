// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package postgres implements store.Backend on top of a pgx connection
// pool, for long-lived client processes (desktop agents, server-side
// integrations) that want the local store to survive a restart.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sage-x-project/tanker/store"
)

// Config holds the PostgreSQL connection parameters for a Backend.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Backend is a PostgreSQL-backed store.Backend.
type Backend struct {
	pool *pgxpool.Pool
}

// NewBackend opens a connection pool to cfg, pings it, and ensures the
// backing table exists.
func NewBackend(ctx context.Context, cfg *Config) (*Backend, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store/postgres: ping database: %w", err)
	}

	b := &Backend{pool: pool}
	if err := b.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) ensureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS tanker_store_records (
			namespace SMALLINT NOT NULL,
			key       BYTEA NOT NULL,
			value     BYTEA NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`
	if _, err := b.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("store/postgres: ensure schema: %w", err)
	}
	return nil
}

func (b *Backend) Put(ctx context.Context, ns store.Namespace, key []byte, value []byte) error {
	const query = `
		INSERT INTO tanker_store_records (namespace, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := b.pool.Exec(ctx, query, int16(ns), key, value); err != nil {
		return fmt.Errorf("store/postgres: put: %w", err)
	}
	return nil
}

func (b *Backend) Get(ctx context.Context, ns store.Namespace, key []byte) ([]byte, bool, error) {
	const query = `SELECT value FROM tanker_store_records WHERE namespace = $1 AND key = $2`
	var value []byte
	err := b.pool.QueryRow(ctx, query, int16(ns), key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store/postgres: get: %w", err)
	}
	return value, true, nil
}

func (b *Backend) Delete(ctx context.Context, ns store.Namespace, key []byte) error {
	const query = `DELETE FROM tanker_store_records WHERE namespace = $1 AND key = $2`
	if _, err := b.pool.Exec(ctx, query, int16(ns), key); err != nil {
		return fmt.Errorf("store/postgres: delete: %w", err)
	}
	return nil
}

func (b *Backend) Clear(ctx context.Context) error {
	const query = `TRUNCATE tanker_store_records`
	if _, err := b.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("store/postgres: clear: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

var _ store.Backend = (*Backend)(nil)

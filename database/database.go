// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package database stores course data used for certificate enrichment and
// the off-chain certificate records
package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/blinklabs-io/credmint/database/models"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMysql    = "mysql"
)

var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrCertificateNotFound = errors.New("certificate not found")
)

// Database is a gorm-backed store
type Database struct {
	db      *gorm.DB
	logger  *slog.Logger
	driver  string
	dataDir string
	dsn     string
}

type DatabaseOptionFunc func(*Database)

// WithDriver selects sqlite, postgres, or mysql
func WithDriver(driver string) DatabaseOptionFunc {
	return func(d *Database) {
		d.driver = driver
	}
}

// WithDataDir sets the sqlite data directory. An empty value uses an
// in-memory database
func WithDataDir(dataDir string) DatabaseOptionFunc {
	return func(d *Database) {
		d.dataDir = dataDir
	}
}

// WithDsn sets the postgres or mysql data source name
func WithDsn(dsn string) DatabaseOptionFunc {
	return func(d *Database) {
		d.dsn = dsn
	}
}

func WithLogger(logger *slog.Logger) DatabaseOptionFunc {
	return func(d *Database) {
		d.logger = logger
	}
}

// New opens the database and creates the table schemas
func New(opts ...DatabaseOptionFunc) (*Database, error) {
	d := &Database{
		driver: DriverSqlite,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	d.logger = d.logger.With("component", "database")
	dialector, err := d.dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(
		dialector,
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.driver, err)
	}
	d.db = db
	// Configure tracing for GORM
	if err := d.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	for _, model := range models.MigrateModels {
		d.logger.Debug(fmt.Sprintf("creating table: %#v", model))
		if err := d.db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Database) dialector() (gorm.Dialector, error) {
	switch d.driver {
	case DriverSqlite:
		if d.dataDir == "" {
			// Each in-memory store gets its own shared-cache database
			return sqlite.Open(
				fmt.Sprintf(
					"file:%s?mode=memory&cache=shared",
					uuid.NewString(),
				),
			), nil
		}
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(d.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(d.dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		dbPath := filepath.Join(d.dataDir, "credmint.sqlite")
		connOpts := "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		return sqlite.Open(
			fmt.Sprintf("file:%s?%s", dbPath, connOpts),
		), nil
	case DriverPostgres:
		if d.dsn == "" {
			return nil, errors.New("postgres: DSN not set")
		}
		return postgres.Open(d.dsn), nil
	case DriverMysql:
		if d.dsn == "" {
			return nil, errors.New("mysql: DSN not set")
		}
		return gormmysql.Open(d.dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", d.driver)
	}
}

// DB returns the underlying gorm handle
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Close closes the database connections
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

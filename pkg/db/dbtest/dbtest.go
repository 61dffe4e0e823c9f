// Package dbtest opens isolated in-memory SQLite databases carrying the
// meals, claims and meal_logs schema for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sharemeal/sharemeal-backend/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS meals (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  quantity TEXT NOT NULL,
  unit TEXT NOT NULL,
  storage_type TEXT,
  food_type TEXT,
  food_status TEXT,
  prepared_at DATETIME NOT NULL,
  expiry_at DATETIME,
  status TEXT NOT NULL DEFAULT 'AVAILABLE',
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);
CREATE TABLE IF NOT EXISTS claims (
  id TEXT PRIMARY KEY,
  meal_id TEXT NOT NULL REFERENCES meals(id),
  claimant_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  beneficiaries_count INTEGER,
  claimed_at DATETIME NOT NULL,
  picked_up_at DATETIME,
  completed_at DATETIME,
  cancelled_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_claims_active_meal ON claims (meal_id) WHERE status = 'ACTIVE';
CREATE TABLE IF NOT EXISTS meal_logs (
  id TEXT PRIMARY KEY,
  meal_id TEXT NOT NULL,
  changed_by TEXT,
  from_status TEXT NOT NULL,
  to_status TEXT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`

// New returns a fresh database with the schema applied. The pool is capped at
// one connection, so concurrent callers serialize instead of racing SQLite's
// table locks.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

// NewClient wraps New in a db.Client so services get a real transaction runner.
func NewClient(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := New(t)
	return db.Wrap(conn), conn
}

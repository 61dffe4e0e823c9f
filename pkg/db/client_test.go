package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/pkg/config"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicked"}).Error; err != nil {
				return err
			}
			panic("kaboom")
		})
	})

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPing(t *testing.T) {
	client := Wrap(newTestDB(t))
	require.NoError(t, client.Ping(context.Background()))
}

func TestNewWithSQLiteDriver(t *testing.T) {
	cfg := config.DBConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}
	client, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: "oracle", DSN: "x"}, nil)
	require.Error(t, err)
}

func TestIsUniqueViolationOnSQLite(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&testModel{Name: "dup"}).Error)

	err := db.Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "test_models.name"))
	assert.False(t, IsUniqueViolation(err, "other_constraint"))
	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

// Package testutil wires throwaway sqlite and redis backends into config for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/mmdatafocus/books_valuation/config"
	"github.com/mmdatafocus/books_valuation/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory database private to t and installs it as config.GetDB().
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := config.InstallPlugins(db); err != nil {
		t.Fatalf("install plugins: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.UseDB(db)
	t.Cleanup(func() {
		config.UseDB(nil)
		_ = sqlDB.Close()
	})
	return db
}

// StartRedis runs a miniredis server for t and installs a client for it as config.GetRedisDB().
func StartRedis(t testing.TB) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	config.UseRedis(client)
	t.Cleanup(func() {
		config.UseRedis(nil)
		_ = client.Close()
		mr.Close()
	})
	return mr
}

func Ptr[T any](v T) *T {
	return &v
}

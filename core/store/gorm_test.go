package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"record-sync/core/database"
	"record-sync/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		remote_id INTEGER,
		first_name TEXT
	)`).Error)
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, remoteIDs ...any) {
	t.Helper()
	for _, rid := range remoteIDs {
		require.NoError(t, db.Exec("INSERT INTO users (remote_id, first_name) VALUES (?, ?)", rid, fmt.Sprintf("user-%v", rid)).Error)
	}
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestGormStore_Enumerate(t *testing.T) {
	db := setupSQLite(t)
	seedUsers(t, db, 3, nil, 1)
	s := NewGormStore(db)

	records, err := s.Enumerate(context.Background(), "users", "remote_id", nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, reconcile.LocalID("1"), records[0].ID)
	assert.Equal(t, int64(3), records[0].Value)
	assert.Nil(t, records[1].Value)
	assert.Equal(t, int64(1), records[2].Value)
	assert.NotContains(t, records[0].Row, "first_name")
}

func TestGormStore_EnumerateScopes(t *testing.T) {
	db := setupSQLite(t)
	seedUsers(t, db, 0, 1, 2, nil)
	s := NewGormStore(db)
	ctx := context.Background()

	t.Run("FieldEquals", func(t *testing.T) {
		records, err := s.Enumerate(ctx, "users", "remote_id", reconcile.FieldEquals("remote_id", 1))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(1), records[0].Value)
	})

	t.Run("FieldEquals Null", func(t *testing.T) {
		records, err := s.Enumerate(ctx, "users", "remote_id", reconcile.FieldEquals("remote_id", nil))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Nil(t, records[0].Value)
	})

	t.Run("FieldEquals And Expr", func(t *testing.T) {
		active, err := reconcile.Expr(`remote_id >= 1`)
		require.NoError(t, err)

		records, err := s.Enumerate(ctx, "users", "remote_id", reconcile.And(
			reconcile.FieldEquals("first_name", "user-2"),
			active,
		))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(2), records[0].Value)
	})

	t.Run("Invalid Field", func(t *testing.T) {
		_, err := s.Enumerate(ctx, "users", "remote_id", reconcile.FieldEquals("remote_id = 1 OR 1", 1))
		assert.ErrorIs(t, err, reconcile.ErrInvalidRequest)
	})

	t.Run("Expr", func(t *testing.T) {
		scope, err := reconcile.Expr(`first_name == "user-2"`)
		require.NoError(t, err)

		records, err := s.Enumerate(ctx, "users", "remote_id", scope)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(2), records[0].Value)
		assert.Equal(t, "user-2", records[0].Row["first_name"])
	})

	t.Run("ScopeFunc", func(t *testing.T) {
		records, err := s.Enumerate(ctx, "users", "remote_id", reconcile.ScopeFunc(func(row map[string]any) bool {
			return row["remote_id"] == nil
		}))
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})
}

func TestGormStore_InsertUpdateDelete(t *testing.T) {
	db := setupSQLite(t)
	s := NewGormStore(db)
	ctx := context.Background()

	id, err := s.Insert(ctx, "users", map[string]any{"remote_id": 31, "first_name": "Elvis"})
	require.NoError(t, err)
	assert.Equal(t, reconcile.LocalID("1"), id)

	id2, err := s.Insert(ctx, "users", map[string]any{"remote_id": 32})
	require.NoError(t, err)
	assert.Equal(t, reconcile.LocalID("2"), id2)

	require.NoError(t, s.Update(ctx, "users", id, map[string]any{"first_name": "Priscilla"}))

	var name string
	require.NoError(t, db.Raw("SELECT first_name FROM users WHERE id = 1").Scan(&name).Error)
	assert.Equal(t, "Priscilla", name)

	require.NoError(t, s.Delete(ctx, "users", []reconcile.LocalID{id}))
	records, err := s.Enumerate(ctx, "users", "remote_id", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id2, records[0].ID)
}

func TestGormStore_InsertExplicitID(t *testing.T) {
	s := NewGormStore(setupSQLite(t))

	id, err := s.Insert(context.Background(), "users", map[string]any{"id": 77, "remote_id": 1})
	require.NoError(t, err)
	assert.Equal(t, reconcile.LocalID("77"), id)

	_, err = s.Insert(context.Background(), "users", map[string]any{})
	assert.Error(t, err)
}

func TestGormStore_DeleteBatches(t *testing.T) {
	db := setupSQLite(t)
	s := NewGormStore(db)
	ctx := context.Background()

	var ids []reconcile.LocalID
	for i := 0; i < deleteBatchSize+20; i++ {
		id, err := s.Insert(ctx, "users", map[string]any{"remote_id": i})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, s.Delete(ctx, "users", ids[:deleteBatchSize+10]))

	var count int64
	require.NoError(t, db.Table("users").Count(&count).Error)
	assert.Equal(t, int64(10), count)
}

func TestGormStore_TablesAndColumns(t *testing.T) {
	db := setupSQLite(t)
	s := NewGormStore(db, WithTables(map[string]string{"members": "users"}), WithIDColumn(""))

	table, err := s.Table("members")
	require.NoError(t, err)
	assert.Equal(t, "users", table)

	columns, err := s.Columns(context.Background(), "members")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "remote_id", "first_name"}, columns)

	_, err = s.Table("users; DROP TABLE users")
	assert.ErrorIs(t, err, reconcile.ErrInvalidRequest)

	_, err = s.Enumerate(context.Background(), "users", "remote-id", nil)
	assert.ErrorIs(t, err, reconcile.ErrInvalidRequest)
}

func TestGormStore_ReservedWordColumns(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE entries (
		"key" INTEGER PRIMARY KEY AUTOINCREMENT,
		"order" INTEGER,
		"group" TEXT
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO entries ("order", "group") VALUES (10, 'a'), (20, 'b'), (30, 'a')`).Error)

	s := NewGormStore(db, WithIDColumn("key"))
	ctx := context.Background()

	records, err := s.Enumerate(ctx, "entries", "order", nil)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, reconcile.LocalID("1"), records[0].ID)
	assert.Equal(t, int64(10), records[0].Value)

	records, err = s.Enumerate(ctx, "entries", "order", reconcile.FieldEquals("group", "a"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(30), records[1].Value)

	require.NoError(t, s.Update(ctx, "entries", "1", map[string]any{"order": 11}))
	require.NoError(t, s.Delete(ctx, "entries", []reconcile.LocalID{"2", "3"}))

	records, err = s.Enumerate(ctx, "entries", "order", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(11), records[0].Value)
}

func TestGormStore_TransactionRollback(t *testing.T) {
	db := setupSQLite(t)
	seedUsers(t, db, 1, 2)
	s := NewGormStore(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx reconcile.LocalStore) error {
		w := tx.(Store)
		if _, err := w.Insert(ctx, "users", map[string]any{"remote_id": 3}); err != nil {
			return err
		}
		if err := tx.Delete(ctx, "users", []reconcile.LocalID{"1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	records, err := s.Enumerate(ctx, "users", "remote_id", nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestGormStore_MySQLQueries(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewGormStore(db, WithTables(map[string]string{"users": "members"}))
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`,`remote_id` FROM `members` WHERE `remote_id` = ? ORDER BY `id`")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "remote_id"}).AddRow(int64(4), []byte("7")))

	records, err := s.Enumerate(ctx, "users", "remote_id", reconcile.FieldEquals("remote_id", 7))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, reconcile.LocalID("4"), records[0].ID)
	assert.Equal(t, "7", records[0].Value)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `members` WHERE `id` IN (?,?)")).
		WithArgs("4", "5").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, s.Delete(ctx, "users", []reconcile.LocalID{"4", "5"}))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `members` (`first_name`, `remote_id`) VALUES (?, ?)")).
		WithArgs("Elvis", 9).
		WillReturnResult(sqlmock.NewResult(12, 1))

	id, err := s.Insert(ctx, "users", map[string]any{"remote_id": 9, "first_name": "Elvis"})
	require.NoError(t, err)
	assert.Equal(t, reconcile.LocalID("12"), id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_EnumerateError(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewGormStore(db)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	_, err := s.Enumerate(context.Background(), "users", "remote_id", nil)
	assert.ErrorContains(t, err, "connection reset")
}

package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// setupTestDB はインメモリのSQLiteデータベースを生成する。
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("データベースのオープンに失敗: %v", err)
	}
	// インメモリDBは接続ごとに独立するため1接続に固定する
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testMigrationsFS はテスト用のマイグレーションファイル群を返す。
func testMigrationsFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/000001_create_items.up.sql": &fstest.MapFile{
			Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`),
		},
		"migrations/000002_add_index.up.sql": &fstest.MapFile{
			Data: []byte(`CREATE INDEX idx_items_name ON items(name);`),
		},
		"migrations/readme.txt": &fstest.MapFile{
			Data: []byte(`対象外のファイル`),
		},
	}
}

// TestRun はマイグレーション適用を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("マイグレーションがバージョン順に適用されること", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := Run(db, testMigrationsFS(), "migrations"); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		// テーブルが作成されていること
		if _, err := db.Exec("INSERT INTO items (name) VALUES ('test')"); err != nil {
			t.Errorf("itemsテーブルへの挿入に失敗: %v", err)
		}

		// 適用済みバージョンが記録されていること
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの取得に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("適用済みマイグレーション数 = %d, want 2", count)
		}
	})

	t.Run("再実行しても適用済みマイグレーションがスキップされること", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		fsys := testMigrationsFS()

		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("1回目のRun() error = %v", err)
		}
		// CREATE TABLEが再実行されるとエラーになるため、スキップされれば成功する
		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("2回目のRun() error = %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの取得に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("適用済みマイグレーション数 = %d, want 2", count)
		}
	})

	t.Run("不正なSQLを含むマイグレーションはエラーになり記録されないこと", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		fsys := fstest.MapFS{
			"migrations/000001_broken.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE TABL broken`),
			},
		}

		if err := Run(db, fsys, "migrations"); err == nil {
			t.Fatal("Run() error = nil, want error")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの取得に失敗: %v", err)
		}
		if count != 0 {
			t.Errorf("適用済みマイグレーション数 = %d, want 0", count)
		}
	})
}

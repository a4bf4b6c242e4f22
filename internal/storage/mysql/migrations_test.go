package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"ProfileFinder/deploy/migrations"
	"ProfileFinder/internal/storage/mysql/mysqltest"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
        version VARCHAR(32) NOT NULL PRIMARY KEY,
        applied_at BIGINT NOT NULL
)`

func TestMigrateAppliesEmbeddedSchema(t *testing.T) {
	content, err := migrations.Files.ReadFile("0001_create_lookup_jobs.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	statements := splitSQLStatements(string(content))
	if len(statements) != 1 || !strings.Contains(statements[0], "lookup_jobs") {
		t.Fatalf("unexpected statements: %v", statements)
	}

	db, drv := mysqltest.Open(t,
		mysqltest.Exec(createMigrationsTable, 0),
		mysqltest.Query(`SELECT version FROM schema_migrations`, []string{"version"}),
		mysqltest.Begin(),
		mysqltest.Exec(statements[0], 0),
		mysqltest.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, 1),
		mysqltest.Commit(),
	)
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	drv.AssertConsumed(t)

	calls := drv.Calls()
	last := calls[len(calls)-1]
	if last.Args[0] != "0001" {
		t.Fatalf("expected version 0001 recorded, got %v", last.Args)
	}
}

func TestMigrateSkipsAppliedVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_init.sql":  {Data: []byte("CREATE TABLE a (id INT);")},
		"0002_more.sql":  {Data: []byte("ALTER TABLE a ADD COLUMN b INT; ALTER TABLE a ADD COLUMN c INT;")},
		"README.md":      {Data: []byte("ignored")},
		"0003_empty.sql": {Data: []byte("  ;  ")},
	}
	db, drv := mysqltest.Open(t,
		mysqltest.Exec(createMigrationsTable, 0),
		mysqltest.Query(`SELECT version FROM schema_migrations`, []string{"version"}, []driver.Value{"0001"}),
		mysqltest.Begin(),
		mysqltest.Exec(`ALTER TABLE a ADD COLUMN b INT`, 0),
		mysqltest.Exec(`ALTER TABLE a ADD COLUMN c INT`, 0),
		mysqltest.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, 1),
		mysqltest.Commit(),
	)
	if err := MigrateFS(context.Background(), db, fsys); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	drv.AssertConsumed(t)
}

func TestMigrateRollsBackOnFailure(t *testing.T) {
	fsys := fstest.MapFS{"0001_init.sql": {Data: []byte("CREATE TABLE a (id INT)")}}
	db, drv := mysqltest.Open(t,
		mysqltest.Exec(createMigrationsTable, 0),
		mysqltest.Query(`SELECT version FROM schema_migrations`, []string{"version"}),
		mysqltest.Begin(),
		mysqltest.Exec(`CREATE TABLE a (id INT)`, 0).WithError(errors.New("syntax error")),
		mysqltest.Rollback(),
	)
	err := MigrateFS(context.Background(), db, fsys)
	if err == nil || !strings.Contains(err.Error(), "0001_init.sql") {
		t.Fatalf("expected migration error, got %v", err)
	}
	drv.AssertConsumed(t)
}

func TestParseMigrationVersion(t *testing.T) {
	cases := map[string]string{
		"0001_create.sql": "0001",
		"0002.sql":        "0002",
		"plain":           "plain",
	}
	for name, want := range cases {
		if got := parseMigrationVersion(name); got != want {
			t.Fatalf("%s: got %s want %s", name, got, want)
		}
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
	if _, err := Open(context.Background(), Config{DSN: "not a dsn"}); err == nil {
		t.Fatalf("expected error for malformed dsn")
	}
}

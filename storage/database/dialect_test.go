package database

import (
	"strings"
	"testing"

	"github.com/madrasa-labs/madrasa/core"
)

func testDatabaseConfig() core.DatabaseConfig {
	return core.DatabaseConfig{
		Host:       "db.local",
		Port:       3306,
		User:       "root",
		Name:       "school_db",
		SQLitePath: "/tmp/school.db",
	}
}

func TestSQLiteRewrite(t *testing.T) {
	d := sqliteDialect{}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "auto increment primary key",
			query: "CREATE TABLE t (id INT AUTO_INCREMENT PRIMARY KEY)",
			want:  "CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT)",
		},
		{
			name:  "bare auto increment",
			query: "id INT AUTO_INCREMENT",
			want:  "id INTEGER",
		},
		{
			name:  "int not null",
			query: "school_id INT NOT NULL",
			want:  "school_id INTEGER NOT NULL",
		},
		{
			name:  "json becomes text",
			query: "detailed_scores JSON, daily_attendance JSON",
			want:  "detailed_scores TEXT, daily_attendance TEXT",
		},
		{
			name:  "engine clause dropped",
			query: "CREATE TABLE t (id INT) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
			want:  "CREATE TABLE t (id INT) ",
		},
		{
			name:  "on update clause dropped",
			query: "updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP",
			want:  "updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ",
		},
		{
			name:  "plain statement untouched",
			query: "SELECT id FROM students WHERE id = ?",
			want:  "SELECT id FROM students WHERE id = ?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Rewrite(tt.query); got != tt.want {
				t.Errorf("Rewrite() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("full schema carries no mysql syntax", func(t *testing.T) {
		for _, ddl := range tables {
			got := d.Rewrite(ddl)
			for _, frag := range []string{"AUTO_INCREMENT", " JSON", "ENGINE=", "ON UPDATE"} {
				if strings.Contains(got, frag) {
					t.Errorf("Rewrite() left %q in:\n%s", frag, got)
				}
			}
		}
	})
}

func TestMySQLRewrite(t *testing.T) {
	d := mysqlDialect{}
	query := "CREATE TABLE t (id INT AUTO_INCREMENT PRIMARY KEY, doc JSON)"
	if got := d.Rewrite(query); got != query {
		t.Errorf("Rewrite() = %q, want unchanged", got)
	}
}

func TestDialectDSN(t *testing.T) {
	t.Run("mysql parses dates", func(t *testing.T) {
		dsn := mysqlDialect{}.DSN(testDatabaseConfig())
		if !strings.Contains(dsn, "parseTime=true") {
			t.Errorf("DSN() = %q, want parseTime=true", dsn)
		}
		if !strings.Contains(dsn, "tcp(db.local:3306)") {
			t.Errorf("DSN() = %q, want tcp(db.local:3306)", dsn)
		}
	})

	t.Run("sqlite enforces foreign keys", func(t *testing.T) {
		dsn := sqliteDialect{}.DSN(testDatabaseConfig())
		if dsn != "file:/tmp/school.db?_foreign_keys=on" {
			t.Errorf("DSN() = %q", dsn)
		}
	})
}

package configlibsql

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct describes where the database lives. A non-empty Url selects a
// remote libsql server, otherwise File is opened with the embedded sqlite
// driver.
type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens the database and applies the given schema. The schema must
// be idempotent (CREATE ... IF NOT EXISTS).
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	db, err := config.open()
	if err != nil {
		return nil, err
	}
	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}

func (config Struct) open() (*sql.DB, error) {
	if config.Url != "" {
		dsn := config.Url
		if config.AuthToken != "" {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn = fmt.Sprintf("%s%sauthToken=%s", dsn, sep, config.AuthToken)
		}
		return sql.Open("libsql", dsn)
	}

	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	if config.File == ":memory:" {
		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			return nil, err
		}
		// every connection to :memory: is its own database
		db.SetMaxOpenConns(1)
		return db, nil
	}

	err := os.MkdirAll(filepath.Dir(config.File), 0777)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

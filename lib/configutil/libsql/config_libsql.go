package configlibsql

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens the configured database and applies the schema, which
// must be idempotent. A remote libsql url wins over a local file.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	if config.Url != "" {
		url := config.Url
		if config.AuthToken != "" {
			url = fmt.Sprintf("%s?authToken=%s", url, config.AuthToken)
		}
		db, err := sql.Open("libsql", url)
		if err != nil {
			return nil, err
		}
		_, err = db.Exec(schema)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	if config.File == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}
	err := os.MkdirAll(filepath.Dir(config.File), 0755)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(config.File)
	isNewDb := os.IsNotExist(statErr)
	if isNewDb {
		f, err := os.Create(config.File)
		if err != nil {
			return nil, err
		}
		f.Close()
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
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

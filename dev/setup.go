package main

import (
	"database/sql"
	"fmt"
	"os"

	"sodatrack-backend/internal/archive/db"
)

func CreateArchiveDB() error {
	path := "dev/.state/archive.db"

	_, err := os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer database.Close()
	_, err = database.Exec(db.Schema)
	return err
}

// starterConfig points every path at the dev state directory and
// keeps the schedule in test mode so a run fires right away.
const starterConfig = `{
  database: { file: "archive.db" },
  stores_file: "stores.json",
  scraper: {
    request_delay_seconds: 2,
    timeout_seconds: 30,
    max_retries: 3,
  },
  output: {
    data_dir: "data",
    format: "csv",
    chunk_size: 20,
  },
  schedule: {
    mode: "test",
    test_interval_seconds: 300,
  },
  // fill in sheets/email/webhook to exercise delivery:
  // sheets: { credentials_file: "credentials.json" },
  // email: { address: "...", password: "...", to: ["..."] },
  // webhook: { url: "https://..." },
}
`

func WriteStarterConfig() error {
	path := "dev/.state/config.json5"

	_, err := os.Stat(path)
	if err == nil {
		fmt.Println("config already exists at", path)
		return nil
	}

	fmt.Println("writing starter config to", path)
	return os.WriteFile(path, []byte(starterConfig), 0644)
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/chainpoll/internal/config"
)

// Usage: migrations [name]
//
// Without a name every up migration is applied. With a name, the single
// migration file matching it (for example 0001_kv_store.down) is executed.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	connStr := os.Getenv("CHAINPOLL_POSTGRES_DSN")
	if connStr == "" {
		connStr = config.PostgresDSNFromEnv()
	}
	if connStr == "" {
		log.Fatal("set CHAINPOLL_POSTGRES_DSN or the POSTGRES_* variables")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	if len(os.Args) < 2 {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Migrations applied successfully.")
		return
	}

	fileContent, err := migrationFileContent(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, string(fileContent)); err != nil {
		log.Fatalf("Failed to execute SQL file: %v", err)
	}
	fmt.Println("Migration file executed successfully.")
}

func migrationFileContent(migrationName string) ([]byte, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s\.sql$`, regexp.QuoteMeta(migrationName)))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	files, err := fs.ReadDir(postgres.Migrations, "migrations")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if !f.IsDir() && regex.MatchString(f.Name()) {
			return fs.ReadFile(postgres.Migrations, "migrations/"+f.Name())
		}
	}
	return nil, fmt.Errorf("migration file not found")
}

// Command reset_db clears every messagely table. Used between manual and
// integration test runs.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"messagely/config"

	_ "github.com/go-sql-driver/mysql"
)

// child tables first
var tables = []string{"message", "user"}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dsn, err := cfg.Database.ConnString()
	if err != nil {
		log.Fatalf("database config: %v", err)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Database connection test failed: %v", err)
	}
	fmt.Printf("Database connected: %s\n", cfg.Database.Database)

	if !*yes {
		fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables %v!\n", tables)
		fmt.Print("Type 'YES' to confirm: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(line) != "YES" {
			fmt.Println("Operation cancelled")
			return
		}
	}

	if err := resetTables(ctx, db, tables); err != nil {
		log.Fatalf("reset: %v", err)
	}
	fmt.Println("All tables cleared")
}

// resetTables deletes every row of each table in order inside one
// transaction.
func resetTables(ctx context.Context, db *sql.DB, tables []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range tables {
		res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM `%s`", table))
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		fmt.Printf("Cleared %s (%d rows)\n", table, n)
	}
	return tx.Commit()
}

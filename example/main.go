package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sqlbridge/sqlbridge"
	"github.com/sqlbridge/sqlbridge/pkg/config"
	"github.com/sqlbridge/sqlbridge/pkg/migrate"
)

func main() {
	ctx := context.Background()

	// 1) Initialize the pool
	cfg := config.Default()
	cfg.DSN = os.Getenv("DATABASE_URL")
	ds := sqlbridge.New(nil)
	if err := ds.Init(cfg); err != nil {
		panic(fmt.Errorf("init: %w", err))
	}
	defer ds.Close()

	// 2) Run migrations in "migrations/"
	mgr, err := migrate.NewManager(ds, "../migrations", nil)
	if err != nil {
		panic(fmt.Errorf("load migrations: %w", err))
	}
	if err := mgr.Up(ctx); err != nil {
		panic(fmt.Errorf("migrate up: %w", err))
	}
	fmt.Println("✅ Migrations applied")

	// 3) Insert and query back inside one session scope
	err = ds.WithSession(ctx, func(s *sqlbridge.Session) error {
		id := uuid.New()
		now := time.Now()
		err := s.Insert(ctx,
			`INSERT INTO users (id, first_name, last_name, email, created_at)
			 VALUES (:id, :first_name, :last_name, :email, :created_at)`,
			[]sqlbridge.Params{{
				"id":         id,
				"first_name": "Alice",
				"last_name":  "Smith",
				"email":      "alice@example.com",
				"created_at": now,
			}},
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		fmt.Printf("✅ Created user %s\n", id)

		result, err := s.Select(ctx,
			`SELECT id, first_name, last_name, email FROM users WHERE email = :email`,
			sqlbridge.Params{"email": "alice@example.com"},
		)
		if err != nil {
			return fmt.Errorf("fetch user: %w", err)
		}
		for _, row := range result.Map() {
			fmt.Printf("✅ Fetched user: %v %v <%v>\n",
				row["first_name"], row["last_name"], row["email"])
		}
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// cmd/adduser/main.go
// Creates or updates an API user for admin sign-in.
//
// Usage:
//
//	go run ./cmd/adduser -username padraic -password testing -role admin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/padraicbc/racingdb/config"
	"github.com/padraicbc/racingdb/db"
	"github.com/padraicbc/racingdb/handlers"
	"github.com/padraicbc/racingdb/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	role := flag.String("role", models.RoleAdmin, "role: admin or guest")
	flag.Parse()

	if !handlers.ValidRole(*role) {
		log.Fatalf("unknown role %q", *role)
	}
	hash, err := handlers.HashPasswordForUser(*username, *password)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	bdb, err := db.Setup(cfg)
	if err != nil {
		log.Fatal("database:", err)
	}
	pool := db.NewPool(bdb, db.PoolOptions{Limit: 1, Wait: true})
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.CreateTables(ctx, pool.DB()); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{Username: *username, Password: hash, Role: *role}
	if err := db.NewUserStore(pool).Upsert(ctx, user); err != nil {
		log.Fatal("save user:", err)
	}

	fmt.Printf("user %q saved with role %s\n", *username, *role)
}

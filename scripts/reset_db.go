package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"pos-backend/internal/auth"
	"pos-backend/internal/config"
	"pos-backend/internal/db"
)

// Tables in dependency order; TRUNCATE ... CASCADE handles the rest.
var tables = []string{
	"idempotency_keys",
	"outbox_events",
	"online_transactions",
	"cart_items",
	"carts",
	"my_payments",
	"my_debts",
	"purchase_order_items",
	"purchase_orders",
	"refunds",
	"customer_payments",
	"debts",
	"sale_items",
	"sales",
	"products",
	"vendors",
	"sub_customers",
	"customers",
	"companies",
	"users",
}

func main() {
	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE ALL DATA!")
	fmt.Println()
	fmt.Println("This will:")
	fmt.Println("  - Delete all users, customers and vendors")
	fmt.Println("  - Delete all products, sales, debts and payments")
	fmt.Println("  - Delete all outbox events and idempotency keys")
	fmt.Println("  - Create a fresh admin account")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)

	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	fmt.Println()
	fmt.Println("Resetting database...")

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v\n", table, err)
		}
		fmt.Printf("  - Cleared %s\n", table)
	}

	email := getEnv("ADMIN_EMAIL", "admin@pos.local")
	password := getEnv("ADMIN_PASSWORD", "admin123")
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v\n", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, 'admin')`,
		uuid.New(), "Administrator", email, hash,
	)
	if err != nil {
		log.Fatalf("Failed to create admin user: %v\n", err)
	}
	fmt.Println("  - Created admin user")

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	fmt.Println()
	fmt.Println("Database reset successful!")
	fmt.Println()
	fmt.Println("Admin credentials:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

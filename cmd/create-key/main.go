package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"carspec/internal/auth"
	"carspec/internal/config"
	"carspec/internal/storage"
	"carspec/internal/utils"
)

// create-key issues an API key directly against the database, for operators
// bootstrapping a deployment before the HTTP API is reachable.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Connecting to database...")
	dbCfg := storage.DefaultDBConfig()
	dbCfg.DSN = cfg.Database.URL

	db, err := storage.NewDB(dbCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	secret, err := auth.GenerateSecret()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to generate secret: %v\n", err)
		os.Exit(1)
	}

	keyID, err := auth.GenerateUniqueID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to generate key id: %v\n", err)
		os.Exit(1)
	}

	hasher := auth.NewHasher(auth.Argon2Params{
		Memory:      cfg.Hasher.Memory,
		Iterations:  cfg.Hasher.Iterations,
		Parallelism: cfg.Hasher.Parallelism,
		SaltLength:  cfg.Hasher.SaltLength,
		KeyLength:   cfg.Hasher.KeyLength,
	}, utils.NewLogger("create-key"))

	hash, err := hasher.HashSecret(secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to hash secret: %v\n", err)
		os.Exit(1)
	}

	repo := storage.NewCredentialRepository(db)
	cred, err := repo.Create(ctx, keyID, hash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to store credential: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nSUCCESS: API key created")
	fmt.Printf("ID:      %s\n", cred.KeyID)
	fmt.Printf("Key:     %s\n", secret)
	fmt.Printf("Created: %s\n", cred.CreatedAt.Format(time.RFC3339))
	fmt.Println("\nThe key is shown only once; only its hash is stored.")
}

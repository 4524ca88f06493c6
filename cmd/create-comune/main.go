package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"catasto_app_go/config"
	"catasto_app_go/db"
	"catasto_app_go/models"
	"catasto_app_go/services"

	"github.com/google/uuid"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := services.SeedDefaultCatalogs(db.DB); err != nil {
		log.Fatalf("Failed to seed catalogs: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label + ": ")
		value, _ := reader.ReadString('\n')
		return strings.TrimSpace(value)
	}

	fmt.Println("=== Create New Comune ===")
	fmt.Println()

	in := services.ComuneInput{
		Nome:      prompt("Nome"),
		Provincia: prompt("Provincia"),
		Regione:   prompt("Regione"),
	}
	if codice := prompt("Codice catastale (optional)"); codice != "" {
		in.CodiceCatastale = &codice
	}
	if raw := prompt("Data istituzione (optional, YYYY-MM-DD)"); raw != "" {
		d, err := services.ParseDate(raw)
		if err != nil {
			log.Fatalf("Invalid date: %v", err)
		}
		in.DataIstituzione = &d
	}

	operator := os.Getenv("USER")
	if operator == "" {
		operator = "cli"
	}
	actor := services.ActorContext{UserID: operator, SessionID: uuid.New().String(), ClientIP: "127.0.0.1"}

	ctx := context.Background()
	comune, err := services.CreateComune(ctx, db.DB, actor, in)
	if err != nil {
		log.Fatalf("Failed to create comune: %v", err)
	}

	// Sections are entered one per line until a blank line
	fmt.Println("Sezioni (one per line, blank line to finish):")
	var sezioni []string
	for {
		nome := prompt("  Sezione")
		if nome == "" {
			break
		}
		if _, err := services.CreateSezione(ctx, db.DB, actor, services.SezioneInput{ComuneID: comune.ID, NomeSezione: nome}); err != nil {
			log.Fatalf("Failed to create sezione %q: %v", nome, err)
		}
		sezioni = append(sezioni, nome)
	}

	fmt.Println()
	fmt.Println("✓ Comune created successfully!")
	fmt.Printf("  ID: %d\n", comune.ID)
	fmt.Printf("  Nome: %s (%s, %s)\n", comune.Nome, comune.Provincia, comune.Regione)
	if len(sezioni) > 0 {
		fmt.Printf("  Sezioni: %s\n", strings.Join(sezioni, ", "))
	}
}

package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/peerlingo/peerlingo/config"
	"github.com/peerlingo/peerlingo/pkg/helpers"
)

type seedUser struct {
	email    string
	name     string
	bio      string
	native   string
	learning string
	location string
}

var demoUsers = []seedUser{
	{"mia@example.com", "Mia Tanaka", "Coffee, manga, and language exchange.", "japanese", "english", "Osaka, Japan"},
	{"lucas@example.com", "Lucas Moreira", "Looking for conversation partners.", "portuguese", "japanese", "Porto, Portugal"},
	{"sofia@example.com", "Sofia Alvarez", "Teacher by day, learner by night.", "spanish", "french", "Valencia, Spain"},
}

const demoPassword = "password123"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(demoPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	ids := make([]string, 0, len(demoUsers))
	for i, u := range demoUsers {
		avatar := fmt.Sprintf("%s/%d.png", cfg.AvatarBaseURL, i+1)
		var id string
		err := db.QueryRow(`
			INSERT INTO users (email, password_hash, full_name, avatar_url, bio, native_language, learning_language, location, is_onboarded)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
			ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
			RETURNING id
		`, u.email, hash, u.name, avatar, u.bio, u.native, u.learning, u.location).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.email, err)
		}
		ids = append(ids, id)
		fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, u.email, demoPassword)
	}

	// A pending request between the first two demo accounts
	if _, err := db.Exec(`
		INSERT INTO friend_requests (sender_id, recipient_id)
		VALUES ($1, $2)
		ON CONFLICT ((LEAST(sender_id, recipient_id)), (GREATEST(sender_id, recipient_id))) DO NOTHING
	`, ids[0], ids[1]); err != nil {
		log.Fatalf("failed to seed friend request: %v", err)
	}
	fmt.Printf("seeded pending friend request: %s -> %s\n", demoUsers[0].email, demoUsers[1].email)
}

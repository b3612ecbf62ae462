package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCategories = []string{"books", "games", "vinyl", "tools", "plants", "camera"}

// SeedTestData resets the database and populates it with demo users,
// items and interest edges.
//
// Behavior:
//  1. Clears all tables owned by this service.
//  2. Creates 20 users with hashed passwords; half get a preferred
//     category filter.
//  3. Gives every user 2-4 available items in random categories.
//  4. Generates ~150 like/pass edges (~70% likes); every 3rd like is
//     made reciprocal so the seeded data contains real matches.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"notifications", "read_receipts", "messages", "matches", "interest_edges", "items", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range []string{"users", "items", "interest_edges", "matches", "messages", "notifications"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence")
	}

	log.Println("Cleared existing data")

	// --- Users ---
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for i := 1; i <= 20; i++ {
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
		}
		// Every other user filters on two random categories.
		if i%2 == 0 {
			a := seedCategories[r.Intn(len(seedCategories))]
			b := seedCategories[r.Intn(len(seedCategories))]
			user.PreferredCategories = []string{a, b}
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		for j := 0; j < 2+r.Intn(3); j++ {
			item := Item{
				OwnerID:   user.ID,
				Title:     fmt.Sprintf("%s item %d-%d", seedCategories[r.Intn(len(seedCategories))], i, j),
				Category:  seedCategories[r.Intn(len(seedCategories))],
				Available: true,
			}
			if err := db.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create item: %w", err)
			}
		}
	}

	var users []User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	// --- Edges ---
	created := 0
	for attempts := 0; created < 150 && attempts < 1000; attempts++ {
		from := users[r.Intn(len(users))].ID
		to := users[r.Intn(len(users))].ID
		if from == to {
			continue
		}
		kind := EdgeKindLike
		if r.Intn(10) >= 7 {
			kind = EdgeKindPass
		}
		res := db.Create(&InterestEdge{FromUserID: from, ToUserID: to, Kind: kind})
		if res.Error != nil {
			continue // duplicate pair, roll again
		}
		created++

		// Every 3rd like becomes mutual.
		if kind == EdgeKindLike && created%3 == 0 {
			db.Create(&InterestEdge{FromUserID: to, ToUserID: from, Kind: EdgeKindLike})
			low, high := CanonicalPair(from, to)
			db.Create(&Match{UserLowID: low, UserHighID: high, Active: true})
		}
	}

	log.Printf("Seeded %d users and %d edges", len(users), created)
	return nil
}

// Command seed loads the demo author, their articles and generated readers.
package main

import (
	"context"
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/seed"
)

func main() {
	readers := flag.Int("readers", 8, "Number of generated readers")
	comments := flag.Int("comments", 3, "Comments per seeded article")
	shouldClean := flag.Bool("clean", false, "Clear blog tables before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for generated data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	fx, err := seed.DefaultFixtures()
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, *randSeed)
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx, fx, seed.Options{Readers: *readers, CommentsPerArticle: *comments})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded users=%d articles=%d likes=%d saves=%d comments=%d",
		sum.Users, sum.Articles, sum.Likes, sum.Saves, sum.Comments)
}

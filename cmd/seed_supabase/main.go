// Command seed_supabase loads demo listings into a Supabase project.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/payeasy/payeasy-api/internal/database"
)

// listingWriter is the part of the repository the seeder writes through.
type listingWriter interface {
	CreateListing(ctx context.Context, listing *database.Listing) error
}

type fixture struct {
	LandlordID string           `yaml:"landlord_id"`
	Listings   []listingFixture `yaml:"listings"`
}

type listingFixture struct {
	LandlordID  string   `yaml:"landlord_id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Address     string   `yaml:"address"`
	RentXLM     float64  `yaml:"rent_xlm"`
	Bedrooms    int      `yaml:"bedrooms"`
	Bathrooms   int      `yaml:"bathrooms"`
	Furnished   *bool    `yaml:"furnished"`
	PetFriendly *bool    `yaml:"pet_friendly"`
	Latitude    *float64 `yaml:"latitude"`
	Longitude   *float64 `yaml:"longitude"`
	Status      string   `yaml:"status"`
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Clean(path))
}

// loadFixtures parses a listings fixture. Listings without their own
// landlord_id inherit the top-level one.
func loadFixtures(data []byte) ([]database.Listing, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	out := make([]database.Listing, 0, len(f.Listings))
	for i, lf := range f.Listings {
		landlord := strings.TrimSpace(lf.LandlordID)
		if landlord == "" {
			landlord = strings.TrimSpace(f.LandlordID)
		}
		if landlord == "" {
			return nil, fmt.Errorf("listing %d: landlord_id is required", i)
		}
		if strings.TrimSpace(lf.Title) == "" {
			return nil, fmt.Errorf("listing %d: title is required", i)
		}
		if lf.RentXLM <= 0 {
			return nil, fmt.Errorf("listing %d: rent_xlm must be positive", i)
		}
		out = append(out, database.Listing{
			LandlordID:  landlord,
			Title:       strings.TrimSpace(lf.Title),
			Description: lf.Description,
			Address:     lf.Address,
			RentXLM:     lf.RentXLM,
			Bedrooms:    lf.Bedrooms,
			Bathrooms:   lf.Bathrooms,
			Furnished:   lf.Furnished,
			PetFriendly: lf.PetFriendly,
			Latitude:    lf.Latitude,
			Longitude:   lf.Longitude,
			Status:      database.ListingStatus(lf.Status),
		})
	}
	return out, nil
}

// seed writes listings in order and stops at the first failure.
func seed(ctx context.Context, w listingWriter, listings []database.Listing) (int, error) {
	for i := range listings {
		if err := w.CreateListing(ctx, &listings[i]); err != nil {
			return i, fmt.Errorf("create listing %q: %w", listings[i].Title, err)
		}
	}
	return len(listings), nil
}

func main() {
	var (
		envFile  = flag.String("env", ".env", "Path to .env with SUPABASE_URL and SUPABASE_SERVICE_KEY")
		fixtures = flag.String("fixtures", "./cmd/seed_supabase/listings.yaml", "Path to the listings fixture")
		dryRun   = flag.Bool("dry-run", false, "Parse fixtures without writing")
	)
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("load env (%s): %v", *envFile, err)
	}

	data, err := readFile(*fixtures)
	if err != nil {
		log.Fatalf("read fixtures: %v", err)
	}
	listings, err := loadFixtures(data)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *dryRun {
		log.Printf("parsed %d listings from %s", len(listings), *fixtures)
		return
	}

	client, err := database.NewClient(database.Config{
		URL:        os.Getenv("SUPABASE_URL"),
		ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
	})
	if err != nil {
		log.Fatalf("supabase client: %v", err)
	}

	n, err := seed(ctx, database.NewRepository(client), listings)
	if err != nil {
		log.Fatalf("seeded %d of %d listings: %v", n, len(listings), err)
	}
	log.Printf("seeded %d listings", n)
}

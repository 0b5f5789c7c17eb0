package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Clark-Hu/movie-catalog/db"
	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

type seedFile struct {
	Directors  []repository.DirectorCreateParams `json:"directors"`
	Categories []string                          `json:"categories"`
	Movies     []seedMovie                       `json:"movies"`
}

type seedMovie struct {
	Isan         string       `json:"isan"`
	Title        string       `json:"title"`
	DateReleased string       `json:"dateReleased"`
	Directors    []int        `json:"directors"`
	Categories   []int        `json:"categories"`
	Reviews      []seedReview `json:"reviews"`
}

type seedReview struct {
	Headline string `json:"headline"`
	Text     string `json:"reviewText"`
	Rating   int    `json:"rating"`
}

// Directors and categories in a movie entry are 0-based positions in the
// file's directors/categories lists, not database ids.
func main() {
	var (
		dbURL   = flag.String("db", os.Getenv("DB_URL"), "postgres connection string")
		data    = flag.String("data", "seed.json", "path to seed data file")
		migrate = flag.Bool("migrate", true, "apply migrations before seeding")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[movie-catalog-seed] ", log.LstdFlags)

	file, err := os.ReadFile(*data)
	if err != nil {
		log.Fatalf("read seed data: %v", err)
	}
	var payload seedFile
	if err := json.Unmarshal(file, &payload); err != nil {
		log.Fatalf("parse seed data: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.New(ctx, *dbURL, store.Options{Logger: logger, StatementCacheCapacity: -1})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()
	if *migrate {
		if err := st.Migrate(ctx, db.Migrations); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	repo := repository.New(st)
	svc := catalog.NewFromRepository(repo, logger)

	directorIDs := make([]int64, 0, len(payload.Directors))
	for _, d := range payload.Directors {
		created, err := repo.Directors.Create(ctx, d)
		if err != nil {
			log.Fatalf("seed director %s %s: %v", d.FirstName, d.LastName, err)
		}
		directorIDs = append(directorIDs, created.ID)
	}
	categoryIDs := make([]int64, 0, len(payload.Categories))
	for _, name := range payload.Categories {
		created, err := repo.Categories.Create(ctx, name)
		if err != nil {
			log.Fatalf("seed category %s: %v", name, err)
		}
		categoryIDs = append(categoryIDs, created.ID)
	}

	for _, m := range payload.Movies {
		var released time.Time
		if m.DateReleased != "" {
			var err error
			if released, err = time.Parse("2006-01-02", m.DateReleased); err != nil {
				log.Fatalf("movie %s: bad dateReleased: %v", m.Isan, err)
			}
		}
		out := svc.Create(ctx, pick(directorIDs, m.Directors), pick(categoryIDs, m.Categories), &catalog.MovieInput{
			Isan:         m.Isan,
			Title:        m.Title,
			DateReleased: released,
		})
		if !out.OK() {
			logger.Printf("skip movie %s: %s (%s)", m.Isan, out.Kind, out.Message)
			continue
		}
		for _, rv := range m.Reviews {
			if _, err := repo.Reviews.Create(ctx, repository.ReviewCreateParams{
				MovieID:  out.Movie.ID,
				Headline: rv.Headline,
				Text:     rv.Text,
				Rating:   rv.Rating,
			}); err != nil {
				log.Fatalf("seed review for %s: %v", m.Isan, err)
			}
		}
	}

	logger.Printf("seeded %d directors, %d categories, %d movies", len(directorIDs), len(categoryIDs), len(payload.Movies))
}

// pick maps file positions to stored ids. Out-of-range positions become -1,
// which the catalog reports as an unknown reference.
func pick(ids []int64, positions []int) []int64 {
	out := make([]int64, 0, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(ids) {
			out = append(out, -1)
			continue
		}
		out = append(out, ids[p])
	}
	return out
}

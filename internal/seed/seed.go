// Package seed loads demo data for development: the fixture author with
// their articles, plus generated readers who like, save and comment.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/articles.yml
var defaultFixtures []byte

// Fixtures is the YAML fixture document.
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
}

// UserFixture is an author and the articles they own.
type UserFixture struct {
	ExternalID string           `yaml:"external_id"`
	Name       string           `yaml:"name"`
	Email      string           `yaml:"email"`
	ImageURL   string           `yaml:"image_url"`
	Articles   []ArticleFixture `yaml:"articles"`
}

// ArticleFixture is one seeded article.
type ArticleFixture struct {
	Title         string `yaml:"title"`
	Category      string `yaml:"category"`
	Content       string `yaml:"content"`
	FeaturedImage string `yaml:"featured_image"`
}

// Options configures generated engagement.
type Options struct {
	Readers            int
	CommentsPerArticle int
	// Seed makes generated data reproducible; zero picks a random seed.
	Seed int64
}

// Summary reports what a run created.
type Summary struct {
	Users    int
	Articles int
	Likes    int
	Saves    int
	Comments int
}

// DefaultFixtures parses the embedded fixture document.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// ParseFixtures decodes a fixture document and checks required fields.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, u := range fx.Users {
		if strings.TrimSpace(u.ExternalID) == "" {
			return nil, fmt.Errorf("fixture user %d: external_id is required", i)
		}
		for j, a := range u.Articles {
			if a.Title == "" || a.Category == "" || a.Content == "" {
				return nil, fmt.Errorf("fixture user %s article %d: title, category and content are required", u.ExternalID, j)
			}
		}
	}
	return &fx, nil
}

// Seeder writes fixtures and generated engagement.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{db: db, faker: gofakeit.New(seed)}
}

// ClearAll removes all blog data.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []string{"comments", "likes", "saved_articles", "articles", "users"}
	for _, table := range tables {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	middleware.Logger.Info("seed: cleared blog tables")
	return nil
}

// LoadFixtures upserts fixture users by external id and creates their
// articles. Articles already present for the same author and title are skipped.
func (s *Seeder) LoadFixtures(ctx context.Context, fx *Fixtures) ([]models.Article, error) {
	db := s.db.WithContext(ctx)
	var out []models.Article

	for _, uf := range fx.Users {
		user := models.User{ExternalID: uf.ExternalID}
		err := db.Where(models.User{ExternalID: uf.ExternalID}).
			Attrs(models.User{Name: uf.Name, Email: uf.Email, ImageURL: uf.ImageURL}).
			FirstOrCreate(&user).Error
		if err != nil {
			return nil, fmt.Errorf("upsert user %s: %w", uf.ExternalID, err)
		}

		for _, af := range uf.Articles {
			var existing models.Article
			err := db.Where("author_id = ? AND title = ?", user.ID, af.Title).First(&existing).Error
			if err == nil {
				out = append(out, existing)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("lookup article %q: %w", af.Title, err)
			}

			article := models.Article{
				Title:         af.Title,
				Category:      af.Category,
				Content:       af.Content,
				FeaturedImage: af.FeaturedImage,
				AuthorID:      user.ID,
			}
			if err := db.Create(&article).Error; err != nil {
				return nil, fmt.Errorf("create article %q: %w", af.Title, err)
			}
			out = append(out, article)
		}
		middleware.Logger.Info("seed: fixture author ready",
			slog.String("external_id", uf.ExternalID), slog.Int("articles", len(uf.Articles)))
	}
	return out, nil
}

// Engagement creates readers and has them like, save and comment on articles.
func (s *Seeder) Engagement(ctx context.Context, articles []models.Article, opts Options) (Summary, error) {
	db := s.db.WithContext(ctx)
	var sum Summary

	readers := make([]models.User, 0, opts.Readers)
	for i := 0; i < opts.Readers; i++ {
		id := s.faker.UUID()
		reader := models.User{
			ExternalID: "seed_" + id,
			Name:       s.faker.Name(),
			Email:      s.faker.Email(),
			ImageURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", id),
		}
		if err := db.Create(&reader).Error; err != nil {
			return sum, fmt.Errorf("create reader: %w", err)
		}
		readers = append(readers, reader)
	}
	sum.Users = len(readers)
	if len(readers) == 0 {
		return sum, nil
	}

	for _, article := range articles {
		for _, reader := range readers {
			if s.faker.Bool() {
				if err := db.Create(&models.Like{UserID: reader.ID, ArticleID: article.ID}).Error; err != nil {
					return sum, fmt.Errorf("create like: %w", err)
				}
				sum.Likes++
			}
			if s.faker.Number(0, 3) == 0 {
				if err := db.Create(&models.SavedArticle{UserID: reader.ID, ArticleID: article.ID}).Error; err != nil {
					return sum, fmt.Errorf("create save: %w", err)
				}
				sum.Saves++
			}
		}

		for i := 0; i < opts.CommentsPerArticle; i++ {
			reader := readers[s.faker.Number(0, len(readers)-1)]
			comment := models.Comment{
				Body:      s.faker.Sentence(12),
				UserID:    reader.ID,
				ArticleID: article.ID,
			}
			if err := db.Create(&comment).Error; err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}
	}
	return sum, nil
}

// Run loads the fixtures then generates engagement on the fixture articles.
func (s *Seeder) Run(ctx context.Context, fx *Fixtures, opts Options) (Summary, error) {
	articles, err := s.LoadFixtures(ctx, fx)
	if err != nil {
		return Summary{}, err
	}
	sum, err := s.Engagement(ctx, articles, opts)
	if err != nil {
		return sum, err
	}
	sum.Users += len(fx.Users)
	sum.Articles = len(articles)
	return sum, nil
}

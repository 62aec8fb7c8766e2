// Package main provides a tool to seed an empty catalog with demo content.
//
// It creates the admin account if the server has not been set up yet, then
// fills the catalog with categories, courses and chapters. The server must
// not be running: the database is opened exclusively.
//
// Usage:
//
//	go run ./cmd/seed --admin-email admin@example.com --admin-password changeme123
//	DATA_PATH=/srv/coursedeck go run ./cmd/seed --publish=false
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/auth"
	"github.com/coursedeck/coursedeck-server/internal/config"
	"github.com/coursedeck/coursedeck-server/internal/domain"
	"github.com/coursedeck/coursedeck-server/internal/logger"
	"github.com/coursedeck/coursedeck-server/internal/search"
	"github.com/coursedeck/coursedeck-server/internal/service"
	"github.com/coursedeck/coursedeck-server/internal/store"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

var (
	adminEmail    = flag.String("admin-email", "admin@example.com", "Admin account used as course creator")
	adminPassword = flag.String("admin-password", "", "Admin password, required when the server is not set up")
	adminName     = flag.String("admin-name", "Catalog Admin", "Admin display name for first-time setup")
	publish       = flag.Bool("publish", true, "Publish seeded courses")
)

type demoChapter struct {
	title, description, videoURL string
	duration                     int
}

type demoCourse struct {
	title, description string
	chapters           []demoChapter
}

type demoSubcategory struct {
	title, description string
	courses            []demoCourse
}

type demoCategory struct {
	title, description string
	subcategories      []demoSubcategory
}

var catalog = []demoCategory{
	{
		title:       "Programming",
		description: "Writing, testing and shipping software",
		subcategories: []demoSubcategory{
			{
				title:       "Go",
				description: "The Go programming language",
				courses: []demoCourse{
					{
						title:       "Concurrency in Go",
						description: "Goroutines, channels, select and the memory model",
						chapters: []demoChapter{
							{"Goroutines", "Starting and stopping concurrent work", "https://www.youtube.com/watch?v=f6kdp27TYZs", 1860},
							{"Channels", "Communicating between goroutines", "https://youtu.be/KBZlN0izeiY", 1740},
							{"Patterns", "Pipelines, fan-out and cancellation", "https://www.youtube.com/watch?v=QDDwwePbDtw", 2100},
						},
					},
					{
						title:       "Testing Go Services",
						description: "Table tests, fakes and httptest",
						chapters: []demoChapter{
							{"Table tests", "Structuring test cases", "https://www.youtube.com/watch?v=ndmB0bj7eyw", 1500},
						},
					},
				},
			},
			{
				title:       "Rust",
				description: "Systems programming with Rust",
				courses: []demoCourse{
					{
						title:       "Ownership in Rust",
						description: "Borrowing, lifetimes and moves",
						chapters: []demoChapter{
							{"Ownership", "Who frees what", "https://www.youtube.com/watch?v=VFIOSWy93H0", 1320},
						},
					},
				},
			},
		},
	},
	{
		title:       "Design",
		description: "Visual and interaction design",
		subcategories: []demoSubcategory{
			{
				title:       "UI Fundamentals",
				description: "Layout, type and color",
				courses: []demoCourse{
					{
						title:       "Typography Basics",
						description: "Choosing and pairing typefaces",
						chapters: []demoChapter{
							{"Type anatomy", "Parts of a letterform", "https://www.youtube.com/watch?v=QrNi9FmdlxY", 900},
						},
					},
				},
			},
		},
	},
}

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(logger.Config{Level: logger.ParseLevel("warn"), Environment: cfg.App.Environment})
	defer lg.Close()

	fmt.Printf("Opening data directory: %s\n", cfg.Data.BasePath)

	st, err := store.New(cfg.Data.DBPath(), lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	journal, err := audit.Open(cfg.Data.AuditPath(), lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open audit journal: %v", err)
	}
	defer journal.Close()

	index, err := search.NewCourseIndex(search.Options{DataPath: cfg.Data.SearchPath(), Logger: lg.Logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()
	st.SetSearchIndexer(index)

	key, err := auth.LoadOrGenerateKey(cfg.Data.KeyPath())
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	v := validation.New()
	authService := service.NewAuthService(st, tokens, service.NewSessionService(st, tokens, lg.Logger), v, journal, lg.Logger)
	taxonomy := service.NewTaxonomyService(st, v, journal, lg.Logger)
	courses := service.NewCourseService(st, index, v, journal, lg.Logger)
	chapters := service.NewChapterService(st, v, journal, lg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	admin, err := ensureAdmin(ctx, st, authService)
	if err != nil {
		log.Fatalf("Failed to resolve admin: %v", err)
	}
	fmt.Printf("Seeding as %s (%s)\n", admin.Name, admin.ID)

	existing, err := taxonomy.ListCategories(ctx)
	if err != nil {
		log.Fatalf("Failed to list categories: %v", err)
	}
	if len(existing) > 0 {
		log.Fatalf("Catalog already has %d categories; seed only runs against an empty catalog", len(existing))
	}

	var courseCount, chapterCount int
	for _, dc := range catalog {
		cat, err := taxonomy.CreateCategory(ctx, admin.ID, service.CreateCategoryRequest{
			Title:       dc.title,
			Description: dc.description,
		})
		if err != nil {
			log.Fatalf("Failed to create category %q: %v", dc.title, err)
		}
		fmt.Printf("\n%s\n", cat.Title)

		for _, ds := range dc.subcategories {
			sub, err := taxonomy.CreateSubCategory(ctx, admin.ID, cat.ID, service.CreateSubCategoryRequest{
				Title:       ds.title,
				Description: ds.description,
			})
			if err != nil {
				log.Fatalf("Failed to create subcategory %q: %v", ds.title, err)
			}
			fmt.Printf("  %s\n", sub.Title)

			for _, dco := range ds.courses {
				course, err := courses.CreateCourse(ctx, admin.ID, service.CreateCourseRequest{
					Title:         dco.title,
					Description:   dco.description,
					CategoryID:    cat.ID,
					SubcategoryID: sub.ID,
				})
				if err != nil {
					log.Fatalf("Failed to create course %q: %v", dco.title, err)
				}
				courseCount++

				for _, ch := range dco.chapters {
					if _, err := chapters.CreateChapter(ctx, admin.ID, course.ID, service.CreateChapterRequest{
						Title:       ch.title,
						Description: ch.description,
						VideoURL:    ch.videoURL,
						Duration:    ch.duration,
						IsPublished: *publish,
					}); err != nil {
						log.Fatalf("Failed to create chapter %q: %v", ch.title, err)
					}
					chapterCount++
				}

				if *publish {
					published := true
					if _, err := courses.UpdateCourse(ctx, admin.ID, course.ID, domain.CoursePatch{IsPublished: &published}); err != nil {
						log.Fatalf("Failed to publish course %q: %v", dco.title, err)
					}
				}
				fmt.Printf("    %s (%d chapters)\n", course.Title, len(dco.chapters))
			}
		}
	}

	fmt.Printf("\nSeeded %d categories, %d courses and %d chapters\n", len(catalog), courseCount, chapterCount)
}

// ensureAdmin returns the admin named by --admin-email, running first-time setup if needed.
func ensureAdmin(ctx context.Context, st *store.Store, authService *service.AuthService) (*domain.User, error) {
	required, err := authService.IsSetupRequired(ctx)
	if err != nil {
		return nil, err
	}

	if required {
		if *adminPassword == "" {
			return nil, fmt.Errorf("server is not set up; pass --admin-password to create %s", *adminEmail)
		}
		resp, err := authService.Setup(ctx, service.AccountRequest{
			Email:    *adminEmail,
			Password: *adminPassword,
			Name:     *adminName,
		}, service.ClientInfo{UserAgent: "coursedeck-seed"})
		if err != nil {
			return nil, err
		}
		fmt.Printf("Created admin account %s\n", *adminEmail)
		return resp.User, nil
	}

	user, err := st.GetUserByEmail(ctx, *adminEmail)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", *adminEmail, err)
	}
	if !user.IsAdmin() {
		return nil, fmt.Errorf("%s is not an admin", *adminEmail)
	}
	return user, nil
}

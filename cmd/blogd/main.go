package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-blog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := blog.NewConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dsn := os.Getenv("BLOG_DSN")
	if dsn == "" {
		dsn = "file:blog.db?cache=shared&_fk=1"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := createSchema(ctx, db); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	repo := blog.NewRepositoryManager(db)
	repo.MustValidate()

	provider := blog.NewUserProvider(repo.Users())

	auther, err := blog.NewAuthenticator(provider, cfg)
	if err != nil {
		log.Fatalf("authenticator: %v", err)
	}
	auther.Start(ctx)

	guard, err := blog.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		log.Fatalf("route guard: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "blogd",
	})

	blog.RegisterBlogRoutes(app,
		blog.WithControllerRepo(repo),
		blog.WithControllerAuth(auther, guard),
		blog.WithControllerContextKey(cfg.GetContextKey()),
		blog.WithControllerDebug(os.Getenv("BLOG_DEBUG") == "true"),
	)

	addr := os.Getenv("BLOG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func createSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*blog.User)(nil),
		(*blog.Post)(nil),
		(*blog.Comment)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

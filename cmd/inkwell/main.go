// Command inkwell runs the blog server. All site settings come from
// environment variables; a .env file in the working directory is honored.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/calder/inkwell"
	"github.com/calder/inkwell/views"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg := inkwell.Config{
		Name:          inkwell.EnvOr("SITE_NAME", "Inkwell"),
		URL:           strings.TrimSuffix(inkwell.EnvOr("SITE_URL", "http://localhost:3000"), "/"),
		Description:   os.Getenv("SITE_DESCRIPTION"),
		Addr:          inkwell.EnvOr("ADDR", ":3000"),
		DatabasePath:  inkwell.EnvOr("DATABASE_PATH", "data/inkwell.db"),
		SessionSecret: inkwell.MustEnv("SESSION_SECRET"),
		CookieSecure:  strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true"),
	}

	site := views.Site{Name: cfg.Name, URL: cfg.URL}
	app := inkwell.New(cfg, site.Funcs())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

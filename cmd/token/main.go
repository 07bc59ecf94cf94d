// Command token mints a bearer token for local development and, with
// -register, makes sure the user row exists in postgres.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abhishek622/careerflow/internal/auth"
	"github.com/abhishek622/careerflow/internal/config"
	"github.com/abhishek622/careerflow/internal/database"
	"github.com/abhishek622/careerflow/internal/logger"
	"github.com/abhishek622/careerflow/internal/repository"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	userID := flag.String("user", "", "user id (uuid); a new one is generated when empty")
	email := flag.String("email", "dev@careerflow.local", "email stored with the user")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to JWT_ACCESS_TOKEN_TTL")
	register := flag.Bool("register", false, "insert the user into postgres if missing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, _ := logger.NewLogger(cfg.Env)
	defer log.Sync()
	sugar := log.Sugar()

	id := uuid.New()
	if *userID != "" {
		if id, err = uuid.Parse(*userID); err != nil {
			sugar.Fatalw("invalid user id", "user", *userID, "err", err)
		}
	}

	if *register {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pool, err := database.Connect(ctx, cfg.DB)
		if err != nil {
			sugar.Fatal(err)
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := database.Migrate(ctx, pool); err != nil {
				sugar.Fatal(err)
			}
		}
		u, err := repository.NewPostgres(pool).EnsureUser(ctx, id, *email)
		if err != nil {
			sugar.Fatalw("register user", "user", id, "err", err)
		}
		sugar.Infow("user ready", "user_id", u.ID, "email", u.Email)
	}

	lifetime := cfg.JWT.AccessTokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	token, claims, err := auth.NewJWTMaker(cfg.JWT.Secret).GenerateToken(id.String(), *email, lifetime)
	if err != nil {
		sugar.Fatal(err)
	}
	sugar.Infow("token minted", "user_id", claims.UserID, "expires_at", claims.ExpiresAt.Time)
	fmt.Println(token)
}

// idtoken выпускает ID token для локальной разработки, подписанный секретом из конфига.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/14kear/siteVoting/internal/config"
	"github.com/14kear/siteVoting/internal/lib/jwt"
)

func main() {
	var (
		configPath string
		email      string
		ttl        time.Duration
	)

	flag.StringVar(&configPath, "config", "config/local.yaml", "path to config file")
	flag.StringVar(&email, "email", "", "voter email")
	flag.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	flag.Parse()

	if email == "" {
		log.Fatal("email is required")
	}

	_ = godotenv.Load()

	cfg, err := config.Read(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	token, err := jwt.NewIDToken(jwt.Issuer{
		Name:     cfg.Identity.Issuer,
		Audience: cfg.Identity.Audience,
		Secret:   []byte(cfg.Identity.Secret),
	}, email, ttl)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}

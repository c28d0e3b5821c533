// Command token prints a bearer token for the API, signed with JWT_SECRET.
// Tokens are issued elsewhere in production; this is for local use.
package main

import (
	"flag"
	"fmt"
	"os"

	"fileintake/internal/config"
	"fileintake/internal/logger"
	jwtsvc "fileintake/internal/pkg/jwt"
)

func main() {
	userID := flag.Int64("user", 1, "user id")
	role := flag.String("role", "client", "role claim (admin unlocks maintenance routes)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Error("failed to load config", logger.Error(err))
		os.Exit(1)
	}
	if cfg.IsProduction() {
		logger.GetLogger().Error("refusing to mint tokens in production")
		os.Exit(1)
	}

	token, err := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL).GenerateToken(*userID, *role)
	if err != nil {
		logger.GetLogger().Error("failed to sign token", logger.Error(err))
		os.Exit(1)
	}
	fmt.Println(token)
}

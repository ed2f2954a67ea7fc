// Command init_admin promotes the configured admin account directly in
// MongoDB, for deployments where the server cannot be restarted to run
// the startup promotion.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"saultochat/internal/config"
	"saultochat/internal/model/auth"
	"saultochat/internal/pkg/logger"
	"saultochat/internal/pkg/mongodb"
	authrepo "saultochat/internal/repository/auth"
)

func main() {
	// load configuration with the same search path as cmd/root.go
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.saultochat")

	viper.SetEnvPrefix("SAULTO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
		os.Exit(1)
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	adminEmail := cfg.Auth.AdminEmail
	if adminEmail == "" {
		adminEmail = os.Getenv("SAULTO_AUTH_ADMIN_EMAIL")
	}
	if adminEmail == "" {
		log.Fatal().Msg("no admin email configured (auth.admin_email)")
	}

	client, err := mongodb.New(&cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongo")
	}
	defer func() {
		_ = client.Close(context.Background())
	}()

	ctx := context.Background()
	users := authrepo.NewMongoUserStore(client.Database())

	user, err := users.FindByEmail(ctx, adminEmail)
	if errors.Is(err, authrepo.ErrNotFound) {
		log.Info().Str("email", adminEmail).
			Msg("admin user not found, they will be created as admin on first login")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to look up admin user")
	}

	if user.Role == auth.RoleAdmin {
		log.Info().Str("email", adminEmail).Msg("user is already an admin")
		return
	}

	if err := users.UpdateRole(ctx, user.ID, auth.RoleAdmin); err != nil {
		log.Fatal().Err(err).Msg("failed to promote user")
	}
	log.Info().Str("email", adminEmail).Msg("promoted user to admin")
}

package main

import (
	"context"
	"flag"
	"time"

	"go-chat/internal/config"
	"go-chat/internal/database"
	"go-chat/internal/features/authz"
	"go-chat/internal/features/user"
	"go-chat/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var (
	username = flag.String("username", "", "owner username (required)")
	realName = flag.String("real-name", "", "owner real name (required)")
	phone    = flag.String("phone", "", "owner phone number")
)

// Seed creates the initial owner account and shuts the app down.
func Seed(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if *username == "" || *realName == "" {
					logger.Error("usage: seed -username <name> -real-name <name> [-phone <number>]")
					return
				}

				if _, err := userRepo.FindByUsername(ctx, *username); err == nil {
					logger.Warn("Username already taken, nothing to do",
						zap.String("username", *username))
					return
				}

				owner := &user.User{
					Username: *username,
					RealName: *realName,
					Phone:    *phone,
					Role:     authz.RoleOwner,
				}
				if err := userRepo.Create(ctx, owner); err != nil {
					logger.Error("Failed to create owner", zap.Error(err))
					return
				}

				logger.Info("Owner account created",
					zap.String("username", owner.Username),
					zap.String("id", owner.ID.Hex()),
					zap.String("role", owner.Role))
			}()
			return nil
		},
	})
}

func main() {
	flag.Parse()

	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			user.NewUserRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}

package main

import (
	"context"
	"fmt"
	common_api "go-chat/internal/common/api"
	"go-chat/internal/config"
	"go-chat/internal/database"
	"go-chat/internal/features/announcement"
	"go-chat/internal/features/blacklist"
	"go-chat/internal/features/group"
	"go-chat/internal/features/logs"
	"go-chat/internal/features/message"
	"go-chat/internal/features/realtime"
	"go-chat/internal/features/storage"
	"go-chat/internal/features/system"
	"go-chat/internal/features/user"
	"go-chat/internal/logger"
	"go-chat/internal/middleware"
	"go-chat/pkg/utils"
	"log"
	"time"

	_ "go-chat/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             50 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	// Uploaded attachments are served straight from disk.
	app.Static(cfg.FSURL, cfg.FSPath)

	utils.SetSecret(cfg.JWTSecret)

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	groupRepo group.GroupRepository,
	blacklistRepo blacklist.BlacklistRepository,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := userRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure user indexes: %v", err)
				}
				if err := groupRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure group indexes: %v", err)
				}
				if err := blacklistRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure blacklist indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// dissolvePurger fans a group dissolve out to every collection holding
// per-group rows. It talks to the announcement repository rather than
// the service to keep the dependency graph acyclic.
type dissolvePurger struct {
	messages      message.MessageService
	announcements announcement.AnnouncementRepository
}

func (p *dissolvePurger) PurgeGroup(ctx context.Context, groupID primitive.ObjectID) error {
	if err := p.messages.PurgeGroup(ctx, groupID); err != nil {
		return err
	}
	return p.announcements.DeleteByGroup(ctx, groupID)
}

// @title           Group Chat API
// @version         1.0
// @description     Multi-group chat service with role-based access, join requests, blacklists, and read tracking.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Shared infrastructure
			realtime.NewHub,
			group.NewLockMap,
			storage.NewLocalStore,

			// Initialize Repository
			user.NewUserRepository,
			group.NewGroupRepository,
			group.NewRequestRepository,
			blacklist.NewBlacklistRepository,
			message.NewMessageRepository,
			announcement.NewAnnouncementRepository,
			logs.NewLogRepository,

			user.NewUserService,
			group.NewGroupService,
			blacklist.NewBlacklistService,
			message.NewMessageService,
			announcement.NewAnnouncementService,
			logs.NewLogService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(h *realtime.Hub) realtime.Broadcaster { return h },
			func(s blacklist.BlacklistService) group.BanList { return s },
			func(s group.GroupService) announcement.JoinRequester { return s },
			func(m message.MessageService, a announcement.AnnouncementRepository) group.MessagePurger {
				return &dissolvePurger{messages: m, announcements: a}
			},

			// Initialize Controller
			user.NewUserController,
			group.NewGroupController,
			blacklist.NewBlacklistController,
			message.NewMessageController,
			announcement.NewAnnouncementController,
			logs.NewLogController,
			realtime.NewWebSocketController,
			system.NewDebugController,

			// Initialize API Routes
			AsRoute(user.NewUserApi),
			AsRoute(group.NewGroupApi),
			AsRoute(blacklist.NewBlacklistApi),
			AsRoute(message.NewMessageApi),
			AsRoute(announcement.NewAnnouncementApi),
			AsRoute(logs.NewLogApi),
			AsRoute(realtime.NewWebSocketApi),
			AsRoute(system.NewDebugApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, logService logs.LogService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return logService.InitializeScheduler(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return logService.StopScheduler()
					},
				})
			},
			InitializeIndexes,
		),
	)

	app.Run()
}

package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"domestique/internal/catalog"
	"domestique/internal/config"
	"domestique/internal/db"
	"domestique/internal/engine"
	"domestique/internal/handlers"
	"domestique/internal/identity"
	"domestique/internal/logger"
	"domestique/internal/middleware"
	"domestique/internal/models"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log, flush := logger.New(cfg.LogLevel, cfg.LogJSON)
	defer flush()

	gdb, err := db.Connect(cfg.DBDSN, db.Opts{
		MaxOpenConns:   cfg.DBMaxOpenConns,
		MaxIdleConns:   cfg.DBMaxIdleConns,
		ConnMaxLifeMin: cfg.DBConnMaxLifeMin,
	})
	if err != nil {
		log.Fatal("database connect", zap.Error(err))
	}

	if err := models.AutoMigrate(gdb); err != nil {
		log.Fatal("automigrate", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable, catalog cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	ident := identity.New(gdb)
	cat := catalog.New(gdb, rdb)
	eng := engine.New(gdb)

	if u, err := ident.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal("bootstrap admin", zap.Error(err))
	} else if u != nil {
		log.Info("bootstrap admin created", zap.String("email", u.Email))
	}

	app := fiber.New()

	app.Use(logger.AccessLog(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	authH := &handlers.AuthHandler{
		DB:        gdb,
		Identity:  ident,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	catalogH := handlers.NewCatalogHandler(cat)
	requestH := handlers.NewRequestHandler(gdb, eng)
	responseH := handlers.NewResponseHandler(gdb, eng)
	adminH := handlers.NewAdminHandler(gdb, ident)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/services", catalogH.List)
	api.Get("/services/categories", catalogH.Categories)
	api.Get("/services/:id", catalogH.Get)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)

	// client
	protected.Post("/requests",
		middleware.RequireRoles(models.RoleClient),
		requestH.Create,
	)
	protected.Get("/client/dashboard",
		middleware.RequireRoles(models.RoleClient),
		requestH.ClientDashboard,
	)
	protected.Post("/requests/:id/accept",
		middleware.RequireRoles(models.RoleClient),
		requestH.Accept,
	)
	protected.Post("/responses/:id/reject",
		middleware.RequireRoles(models.RoleClient),
		responseH.Reject,
	)
	protected.Post("/requests/:id/cancel",
		middleware.RequireRoles(models.RoleClient, models.RoleAdmin),
		requestH.Cancel,
	)
	protected.Post("/requests/:id/complete",
		middleware.RequireRoles(models.RoleClient, models.RoleAdmin),
		requestH.Complete,
	)
	protected.Delete("/requests/:id",
		middleware.RequireRoles(models.RoleClient, models.RoleAdmin),
		requestH.Delete,
	)

	// provider
	protected.Get("/requests/open",
		middleware.RequireRoles(models.RoleProvider),
		requestH.ListOpen,
	)
	protected.Post("/requests/:id/responses",
		middleware.RequireRoles(models.RoleProvider),
		responseH.Submit,
	)
	protected.Get("/provider/dashboard",
		middleware.RequireRoles(models.RoleProvider),
		responseH.ProviderDashboard,
	)

	// shared detail view (engine authorizes per role)
	protected.Get("/requests/:id", requestH.Get)

	// admin
	admin := protected.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.Get("/clients", adminH.ListClients)
	admin.Get("/providers", adminH.ListProviders)
	admin.Get("/admins", adminH.ListAdmins)
	admin.Post("/users", adminH.CreateUser)
	admin.Delete("/users/:id", adminH.DeleteUser)
	admin.Patch("/users/:id/role", adminH.SetRole)
	admin.Patch("/providers/:id/approval", adminH.SetApproval)
	admin.Patch("/providers/:id/skills", adminH.SetSkills)
	admin.Get("/requests", requestH.ListAll)
	admin.Post("/services", catalogH.Create)
	admin.Put("/services/:id", catalogH.Update)
	admin.Delete("/services/:id", catalogH.Delete)

	log.Info("listening", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}

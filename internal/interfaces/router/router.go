package router

import (
	"context"
	"net/http"

	authsvc "invoicehub-backend/internal/application/auth"
	clientsvc "invoicehub-backend/internal/application/clients"
	invoicesvc "invoicehub-backend/internal/application/invoices"
	orgsvc "invoicehub-backend/internal/application/org"
	profilesvc "invoicehub-backend/internal/application/profiles"
	usersvc "invoicehub-backend/internal/application/user"
	"invoicehub-backend/internal/config"
	"invoicehub-backend/internal/infrastructure/database"
	authhandler "invoicehub-backend/internal/interfaces/handlers/auth"
	clienthandler "invoicehub-backend/internal/interfaces/handlers/clients"
	healthhandler "invoicehub-backend/internal/interfaces/handlers/health"
	invoicehandler "invoicehub-backend/internal/interfaces/handlers/invoices"
	orghandler "invoicehub-backend/internal/interfaces/handlers/org"
	profilehandler "invoicehub-backend/internal/interfaces/handlers/profiles"
	userhandler "invoicehub-backend/internal/interfaces/handlers/user"
	"invoicehub-backend/internal/middleware"
	"invoicehub-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) PingContext(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateApp opens the database and Redis, migrates the schema and mounts every route.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return New(cfg, db, rdb), db, rdb, nil
}

// New mounts middleware and routes on a fresh Fiber app.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(recover.New())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)
	app.Get("/health/errors", hh.Errors)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
		CookieDomain:      cfg.CookieDomain,
	}

	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	uh := &userhandler.Handlers{Service: &usersvc.Service{DB: db}, Rdb: rdb, Config: sessionCfg}
	app.Post("/api/v1/users/register", uh.Register)

	api := app.Group("/api/v1", middleware.RequireAuth())

	ph := &profilehandler.Handlers{Service: &profilesvc.Service{DB: db}}
	api.Get("/profiles/me", ph.Me)
	api.Patch("/profiles/me", ph.UpdateMe)

	oh := &orghandler.Handlers{Service: &orgsvc.Service{DB: db}}
	ch := &clienthandler.Handlers{Service: &clientsvc.Service{DB: db}}
	og := api.Group("/organizations")
	og.Post("/", oh.Create)
	og.Get("/", oh.List)
	og.Get("/:id", oh.Get)
	og.Patch("/:id", oh.Update)
	og.Post("/:id/members", middleware.AuthorizePermission(db, constants.AddMember, "id"), oh.AddMember)
	og.Get("/:id/clients", ch.ListForOrganization)

	cg := api.Group("/clients")
	cg.Post("/", ch.Create)
	cg.Get("/", ch.List)
	cg.Get("/:id", ch.Get)
	cg.Put("/:id", ch.Replace)
	cg.Patch("/:id", ch.Update)
	cg.Delete("/:id", ch.Delete)

	ih := &invoicehandler.Handlers{Service: &invoicesvc.Service{DB: db, MaxAttempts: cfg.IRNMaxAttempts}}
	ig := api.Group("/invoices")
	ig.Post("/bulk-delete", ih.BulkDelete)
	ig.Get("/generate-irn", ih.GenerateReference)
	ig.Post("/", ih.Create)
	ig.Get("/", ih.List)
	ig.Get("/:id", ih.Get)
	ig.Put("/:id", ih.Update)
	ig.Patch("/:id", ih.Update)
	ig.Delete("/:id", ih.Delete)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}

package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/config"
	"github.com/yuvrajxx14mu/marketing-yard/internal/database"
	"github.com/yuvrajxx14mu/marketing-yard/internal/handler"
	"github.com/yuvrajxx14mu/marketing-yard/internal/identity"
	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/queue"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
	"github.com/yuvrajxx14mu/marketing-yard/internal/router"
	queue_publisher "github.com/yuvrajxx14mu/marketing-yard/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	db, err := database.Open(database.Params{
		User:         cfg.DBUser,
		Pass:         cfg.DBPass,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		MaxOpenConns: cfg.DBMaxConns,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)
	bids := repository.NewBidRepo(db)
	txns := repository.NewTransactionRepo(db)
	messages := repository.NewMessageRepo(db)

	accounts := identity.NewAccounts(users, profiles, tokens, identity.Config{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	})

	e := echo.New()
	e.HideBanner = true

	// Redis is optional: without it the public routes run uncached and
	// unthrottled.
	var publicMws []echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		publicMws = append(publicMws,
			middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		)
	}

	router.RegisterRoutes(e)
	router.RegisterPublic(e, &handler.PublicHandler{Products: products, Profiles: profiles}, publicMws...)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts, users, profiles), cfg.JWTSecret)
	router.RegisterShared(e,
		&handler.DashboardHandler{Products: products, Bids: bids, Txns: txns, Messages: messages},
		&handler.SettingsHandler{Users: users, Profiles: profiles},
		&handler.MessageHandler{Messages: messages},
		&handler.TransactionHandler{Txns: txns},
		cfg.JWTSecret)
	router.RegisterFarmer(e,
		&handler.FarmerHandler{Products: products},
		&handler.BidHandler{Bids: bids, Publish: queue_publisher.PublishBidAccepted},
		cfg.JWTSecret)
	router.RegisterTrader(e,
		&handler.BidHandler{Bids: bids, Publish: queue_publisher.PublishBidAccepted},
		cfg.JWTSecret)
	router.RegisterAdmin(e,
		&handler.AdminHandler{Users: users, Profiles: profiles, Products: products, Txns: txns},
		cfg.JWTSecret)
	router.RegisterPages(e, cfg.JWTSecret, profiles)

	go func() {
		if err := queue.StartBidConsumer(); err != nil {
			log.Printf("bid-consumer: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

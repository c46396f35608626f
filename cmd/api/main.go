package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/entrenar-app/backend_entrenadores/internal/config"
	"github.com/entrenar-app/backend_entrenadores/internal/db"
	"github.com/entrenar-app/backend_entrenadores/internal/handlers"
	"github.com/entrenar-app/backend_entrenadores/internal/middleware"
	"github.com/entrenar-app/backend_entrenadores/internal/realtime"
	"github.com/entrenar-app/backend_entrenadores/internal/services/chat"
	"github.com/entrenar-app/backend_entrenadores/internal/services/hires"
	"github.com/entrenar-app/backend_entrenadores/internal/services/mailer"
	"github.com/entrenar-app/backend_entrenadores/internal/services/mercadopago"
	"github.com/entrenar-app/backend_entrenadores/internal/services/reviews"
	"github.com/entrenar-app/backend_entrenadores/internal/services/stats"
	"github.com/entrenar-app/backend_entrenadores/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	files := storage.NewLocal(cfg.UploadDir, cfg.AppBaseURL)
	mp := mercadopago.NewClient(cfg.MercadoPagoAccessToken, cfg.MercadoPagoBaseURL, cfg.AppBaseURL, cfg.FrontendBaseURL)
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.FrontendBaseURL)

	hireSvc := hires.NewService(gdb)
	chatSvc := chat.NewService(gdb, files)
	reviewSvc := reviews.NewService(gdb)
	statsSvc := stats.NewService(gdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
		Mailer:    mail,
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
	catalogH := handlers.NewCatalogHandler(gdb)
	serviceH := handlers.NewServiceHandler(gdb, statsSvc)
	hireH := handlers.NewHireHandler(gdb, hireSvc, hub)
	chatH := handlers.NewChatHandler(gdb, chatSvc, hub, rdb, cfg.JWTSecret)
	reviewH := handlers.NewReviewHandler(reviewSvc)
	paymentH := handlers.NewPaymentHandler(gdb, hireSvc, mp, rdb)
	statsH := handlers.NewStatsHandler(statsSvc)
	userH := handlers.NewUserHandler(gdb)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.FrontendBaseURL,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Length",
	}))

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/forgot-password", authH.ForgotPassword)
	api.Post("/auth/reset-password", authH.ResetPassword)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", catalogH.GetCategories)
	api.Get("/zones", catalogH.GetZones)
	api.Get("/services", serviceH.ListPublic)
	api.Get("/services/:id", serviceH.GetDetail)

	// payment provider callback, authenticated by signature not JWT
	api.Post("/payments/webhook", paymentH.Webhook)

	// protected (bearer JWT)
	protected := api.Group("/", middleware.JWTBearer(cfg.JWTSecret))

	protected.Get("/me", authH.Me)
	protected.Post("/auth/change-password", authH.ChangePassword)

	protected.Get("/users", middleware.RequireRoles("admin"), userH.List)
	protected.Get("/users/:id", userH.Get)
	protected.Patch("/users/:id", userH.Update)
	protected.Delete("/users/:id", userH.Delete)

	protected.Post("/services", middleware.RequireRoles("trainer"), serviceH.Create)
	protected.Get("/trainer/services", middleware.RequireRoles("trainer"), serviceH.ListMine)
	protected.Patch("/services/:id", middleware.RequireRoles("trainer", "admin"), serviceH.Update)
	protected.Delete("/services/:id", middleware.RequireRoles("trainer", "admin"), serviceH.Delete)

	protected.Post("/hires", middleware.RequireRoles("client"), hireH.Create)
	protected.Get("/hires", hireH.List)
	protected.Get("/hires/:id", hireH.Get)
	protected.Patch("/hires/:id/status", hireH.UpdateState)
	protected.Patch("/hires/:id/complete", middleware.RequireRoles("trainer"), hireH.Complete)

	protected.Get("/hires/:id/messages", chatH.GetMessages)
	protected.Post("/hires/:id/messages", chatH.SendMessage)
	protected.Get("/hires/:id/files", chatH.GetFiles)
	protected.Post("/hires/:id/files", chatH.UploadFile)

	protected.Post("/reviews", middleware.RequireRoles("client"), reviewH.Create)
	protected.Get("/reviews/mine", middleware.RequireRoles("client"), reviewH.ListMine)
	protected.Post("/reviews/:id/response", middleware.RequireRoles("trainer"), reviewH.Respond)
	protected.Delete("/reviews/:id", reviewH.Delete)
	api.Get("/trainers/:trainerId/reviews", reviewH.ListByTrainer)

	protected.Post("/payments/preferences", middleware.RequireRoles("client"), paymentH.CreatePreference)

	protected.Get("/trainer/stats", middleware.RequireRoles("trainer"), statsH.Dashboard)

	// websocket, authenticated via ?token= query param
	app.Get("/ws/chat", websocket.New(chatH.WebSocketHandler))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("shutting down")
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal(err)
	}
}

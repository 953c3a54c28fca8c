package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agent-bounty-system/chain"
	"agent-bounty-system/handlers"
	"agent-bounty-system/middleware"
	"agent-bounty-system/models"
	"agent-bounty-system/services"
	"agent-bounty-system/utils"
	"agent-bounty-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, payloads are JSON only
	})

	// 🔐 GLOBAL: only Gateway requests allowed (open mode when token unset)
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Agent{},
		&models.BountyRecord{},
		&models.EvaluationRecord{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	archive, err := utils.NewR2Archive()
	if err != nil {
		log.Fatal("failed to initialize R2 archive:", err)
	}

	chainCfg, err := chain.LoadConfig("SONIC")
	if err != nil {
		log.Fatal("failed to load chain config:", err)
	}
	pool, err := chain.NewClient(chainCfg)
	if err != nil {
		log.Fatal("failed to connect to chain:", err)
	}

	pinata, err := services.NewPinataClient()
	if err != nil {
		log.Fatal("failed to initialize content store client:", err)
	}

	llm, err := services.NewOpenAIClient()
	if err != nil {
		log.Fatal("failed to initialize model client:", err)
	}

	rdb, err := services.NewRedisClient()
	if err != nil {
		log.Fatal("failed to connect to redis:", err)
	}
	cache := services.NewBountyCache(rdb)

	ranker := services.NewRanker(llm)
	evaluator := services.NewEvaluator(llm, pool, db)
	sweeper := services.NewSweeper(pool)
	bountyService := services.NewBountyService(db, pool, pinata, pinata, ranker, llm, evaluator, cache, archive)
	graphService := services.NewGraphService(pinata, llm)
	agentService := services.NewAgentService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	submissionWorker := workers.NewSubmissionWorker(db, pinata, bountyService)
	go submissionWorker.PollSubmissions(ctx, 60*time.Second)

	sweeper.StartSweepScheduler()

	handlers.SetupBountyRoutes(app, bountyService, sweeper, graphService)
	handlers.SetupAgentRoutes(app, agentService)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Welcome, this is the API root! Agents are running.")
	})
	app.Get("/hello", func(c *fiber.Ctx) error {
		return c.SendString("Hello world!")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Submission polling running (every 60s)")
	log.Println("✅ Reward sweep scheduler running")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}

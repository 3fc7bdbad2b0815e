package main

import (
	"Candor/config"
	pgconfig "Candor/config/postgres"
	_ "Candor/config/swagger"
	"Candor/middleware"
	"Candor/routes"
	"Candor/services/game"
	"Candor/services/questions"
	"Candor/services/redis"
	"Candor/services/socket_io"
	candorsync "Candor/sync"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// @title Candor API
// @version 1.0
// @description Gin-Gonic server for the "Candor" party game API
// @host localhost:8080
// @BasePath /
// @paths
func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	// The audit trail is optional. Without Postgres the engine still runs
	// fully in memory and just logs audit write skips.
	var trail game.AuditTrail
	if os.Getenv("AUDIT_POSTGRES") == "true" {
		gormDB, err := pgconfig.ConnectGORM()
		if err != nil {
			log.Fatalf("Error connecting to PostgreSQL: %v", err)
		}
		log.Println("GORM Connected")

		// Only migrate in development or during deployment
		if os.Getenv("MIGRATE_POSTGRES") == "true" {
			log.Println("Migrating PostgreSQL database...")
			if err := pgconfig.MigrateDatabase(gormDB); err != nil {
				log.Printf("Warning: Database migration failed: %v", err)
				// Continue execution even if migration fails
			} else {
				log.Println("Database migrated successfully")
			}
		}

		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
		}
		defer sqlDB.Close()

		trail = candorsync.NewSyncManager(sqlDB)
	}

	redisClient, err := config.Connect_redis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	log.Println("Connection to Redis successful")
	defer redis.CloseRedis(redisClient)

	engine := game.NewEngine(questions.NewStaticBank(), redisClient, trail)

	sweeper := game.NewSweeper(engine)
	sweeper.Start()
	defer sweeper.Stop()

	r := gin.Default()

	middleware.SetUpMiddleware(r)

	routes.SetupRoutes(r, engine, redisClient)

	var sio socket_io.MySocketServer
	sio.Start(r, engine, redisClient)

	// Configure port
	port := os.Getenv("PORT")
	if port == "" && os.Getenv("USE_HTTPS") == "true" {
		port = "443"
	} else if port == "" {
		port = "8080"
	}

	if os.Getenv("USE_HTTPS") == "true" {
		certFile := os.Getenv("TLS_CERT_FILE")
		keyFile := os.Getenv("TLS_KEY_FILE")

		if err := r.RunTLS(":"+port, certFile, keyFile); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	} else {
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}
	log.Printf("Server started on port %s", port)
}

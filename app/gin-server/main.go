package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jobdeckhq/jobdeck/config"
	"github.com/jobdeckhq/jobdeck/internal/api/handlers"
	"github.com/jobdeckhq/jobdeck/internal/api/middleware"
	"github.com/jobdeckhq/jobdeck/internal/api/routes"
	"github.com/jobdeckhq/jobdeck/internal/logger"
	mongorepo "github.com/jobdeckhq/jobdeck/internal/repositories/mongo"
	"github.com/jobdeckhq/jobdeck/internal/services"
	"github.com/jobdeckhq/jobdeck/internal/session"
	"github.com/jobdeckhq/jobdeck/internal/storage"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	// Serving without the database is not an option
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}

	// Resume features degrade to warnings when the bucket is not configured
	var gw storage.Gateway
	if bucket := os.Getenv("STORAGE_BUCKET"); bucket != "" {
		g, err := storage.NewGCSGateway(context.Background(), bucket)
		if err != nil {
			log.Fatalf("storage init error: %v", err)
		}
		defer g.Close()
		gw = g
	} else {
		l.Warn("STORAGE_BUCKET not set; resume uploads disabled")
	}

	db := config.MongoDatabase()
	users := mongorepo.NewUserRepo(db)
	apps := mongorepo.NewApplicationRepo(db)
	sessions := session.NewRedisStore(config.RedisClient)

	authSvc := services.NewAuthService(users, sessions)
	appSvc := services.NewApplicationService(apps, gw)

	r := gin.New()
	r.Use(middleware.RequestLogger(l), gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Auth:         handlers.NewAuthHandler(authSvc),
		Applications: handlers.NewApplicationHandler(appSvc, l),
		AuthService:  authSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	ln, addr, err := listenWithFallback(port)
	if err != nil {
		log.Fatalf("listen error: %v", err)
	}
	l.WithField("addr", addr).Info("server listening")

	if err := r.RunListener(ln); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// listenWithFallback binds the configured port, walking forward to the next
// free one when it is already taken.
func listenWithFallback(port string) (net.Listener, string, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, "", fmt.Errorf("invalid PORT %q: %w", port, err)
	}

	var lastErr error
	for i := 0; i < 20; i++ {
		addr := fmt.Sprintf(":%d", p+i)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, addr, nil
		}
		lastErr = err
	}
	return nil, "", lastErr
}

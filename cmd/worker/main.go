package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/coldreach/outreach-backend/internal/config"
	"github.com/coldreach/outreach-backend/internal/database"
	"github.com/coldreach/outreach-backend/internal/email"
	"github.com/coldreach/outreach-backend/internal/services"
	"github.com/coldreach/outreach-backend/internal/utils"
)

// The worker is a standalone process so it can be scaled and restarted
// independently of the API. Multiple instances are safe: job claiming uses
// row locks, so two workers never pick up the same job.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	configureLogging()
	utils.InitSentry()

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	var events services.EventPublisher
	publisher, err := services.NewRabbitMQPublisher(cfg.RabbitMQURL())
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
	} else {
		events = publisher
		defer publisher.Close()
	}

	provider := email.NewProvider(cfg)

	worker := services.NewEmailWorker(db, cfg, provider, events)
	worker.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down worker...")

	worker.Stop()
	logrus.Info("Worker exited properly")
}

func configureLogging() {
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

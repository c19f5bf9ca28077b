package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"tradepulse/src/database"
	"tradepulse/src/server"
	"tradepulse/src/utils"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	utils.SetupLogger()
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	config := server.GetConfig()
	deps, err := server.BuildDependencies(config)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build server dependencies")
	}

	server.StartServer(config, deps)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", os.Getenv("APP_NAME")))
	}
	//nolint
	time.Sleep(time.Second * 5)
}

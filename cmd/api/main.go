package main

import (
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/eskrenkovic/wager-rooms/internal/config"
	"github.com/eskrenkovic/wager-rooms/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 {
		rootPath := os.Args[1]
		if rootPath == "" {
			log.Fatal("root directory path is empty")
		}

		if err := godotenv.Load(path.Join(rootPath, "config.env")); err != nil {
			log.Fatal(err)
		}
	}

	config, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	srv, err := server.NewHTTPServer(config)
	if err != nil {
		config.Logger.Fatal("failed to build server", zap.Error(err))
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signals
		if err := srv.Stop(); err != nil {
			config.Logger.Error("failed to stop server", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil {
		config.Logger.Fatal("server stopped", zap.Error(err))
	}
}

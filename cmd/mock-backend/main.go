package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"ragdesk/internal/mockserver"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	addr := os.Getenv("RAGDESK_MOCK_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	modelNames := []string{
		"llama3:8b",
		"mistral:7b",
		"mxbai-embed-large:latest",
		"nomic-embed-text:latest",
	}
	if env := os.Getenv("RAGDESK_MOCK_MODELS"); env != "" {
		modelNames = strings.Split(env, ",")
	}

	srv := mockserver.New(modelNames, logger)
	logger.Info("mock backend listening",
		zap.String("addr", addr),
		zap.Strings("models", modelNames))

	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

package main

import (
	"log/slog"
	"os"

	"minitwit/internal/transport/http"
)

func main() {
	if err := http.Run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"log/slog"

	"github.com/BioHazard786/pairrelay/cmd"
	"github.com/BioHazard786/pairrelay/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init(slog.LevelInfo)
	cmd.Execute()
}

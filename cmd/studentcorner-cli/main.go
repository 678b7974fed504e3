package main

import (
	"context"

	"studentcorner-backend/cmd/studentcorner-cli/commands"
	"studentcorner-backend/internal/components/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}

package main

import (
	"context"
	"os"

	"igold-backend/cmd/igold-scan/cmd"
	"igold-backend/lib/configutil"
	"igold-backend/lib/serviceutil"
	"igold-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	// a missing config file just means defaults
	config, err := configutil.ReadConfig[cmd.Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}

	err = telemetry.SetupFromEnv(ctx, "igold-scan")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer telemetry.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	cmd.Execute(ctx, config)
}

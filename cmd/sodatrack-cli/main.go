package main

import (
	"sodatrack-backend/cmd/sodatrack-cli/commands"
	"sodatrack-backend/lib/telemetry"
	"sodatrack-backend/lib/util/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "sodatrack-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(ctx)
}

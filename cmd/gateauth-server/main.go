package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/MrEthical07/gateAuth/envconfig"
	"github.com/MrEthical07/gateAuth/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (overrides GATEAUTH_CONFIG)")
		devRedis   = flag.Bool("dev-redis", false, "stream audit events to an in-process miniredis when REDIS_URL is unset")
		demoUser   = flag.String("demo-user", "admin@example.com", "identifier of the seeded SUPER_ADMIN account; empty disables seeding")
		demoPass   = flag.String("demo-password", os.Getenv("DEMO_PASSWORD"), "password of the seeded account; generated when empty")
	)
	flag.Parse()

	ctx := context.Background()

	settings, err := envconfig.Load(envconfig.Options{ConfigPath: *configPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	app, err := server.NewApp(ctx, settings, server.Options{
		DevRedis:       *devRedis,
		DemoIdentifier: *demoUser,
		DemoPassword:   *demoPass,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

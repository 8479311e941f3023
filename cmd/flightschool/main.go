// flightschool: drone programming lessons with a live physics simulation
// Serves the lesson API, the block compiler and a telemetry websocket
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-flightschool/internal/config"
	"github.com/teslashibe/go-flightschool/internal/log"
	"github.com/teslashibe/go-flightschool/pkg/lessons"
	"github.com/teslashibe/go-flightschool/pkg/sim"
	"github.com/teslashibe/go-flightschool/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	debug := flag.Bool("debug", false, "Enable debug logging and request logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
		cfg.RequestLog = true
	}

	closer, err := log.Setup(log.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	fmt.Println()
	fmt.Println("🚁 Flight School v" + web.Version)
	fmt.Println("   Block programs for a simulated drone")
	fmt.Println()

	session := sim.NewSession(sim.WithSnapshotEvery(cfg.TelemetryEvery))
	go session.Run()

	server := web.NewServer(cfg, session, lessons.Default())
	server.StartAsync()

	log.Info("flight school ready",
		"http", "http://localhost"+cfg.Addr(),
		"telemetry", "ws://localhost"+cfg.Addr()+"/ws/telemetry",
		"tick_rate", sim.TickRate,
	)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	session.Stop()

	log.Info("goodbye")
}

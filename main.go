package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/helmetmap/internal/api"
	"github.com/banshee-data/helmetmap/internal/config"
	"github.com/banshee-data/helmetmap/internal/db"
	"github.com/banshee-data/helmetmap/internal/device"
	"github.com/banshee-data/helmetmap/internal/mapfetch"
	"github.com/banshee-data/helmetmap/internal/relay"
	"github.com/banshee-data/helmetmap/internal/serialmcu"
	"github.com/banshee-data/helmetmap/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode     = flag.Bool("dev", false, "Run in dev mode (no display hardware, serve static/ from disk)")
	listen      = flag.String("listen", ":8080", "Listen address")
	serialPort  = flag.String("serial-port", "", "Serial port path (overrides config)")
	configPath  = flag.String("config", "", "Path to a display config JSON file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const dbFile = "send_history.db"

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyDisplayConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadDisplayConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	portPath := cfg.GetSerialPort()
	if *serialPort != "" {
		portPath = *serialPort
	}

	var port serialmcu.SerialPorter
	if *devMode {
		log.Print("[main] dev mode: discarding serial output")
		port = serialmcu.NullPort{}
	} else {
		var err error
		port, err = serialmcu.Open(portPath, serialmcu.PortOptions{BaudRate: cfg.GetBaudRate()})
		if err != nil {
			log.Fatalf("failed to connect to display controller: %v", err)
		}
	}

	session := device.NewSession(port, device.Options{
		Width:             cfg.GetWidth(),
		Height:            cfg.GetHeight(),
		Invert:            cfg.GetInvert(),
		RowsBetweenSleeps: cfg.GetRowsBetweenSleeps(),
		RowDelay:          cfg.GetRowDelay(),
		Progress:          device.LogProgress(128),
	})
	defer session.Close()

	history, err := db.NewDB(dbFile)
	if err != nil {
		log.Fatalf("failed to open send history database: %v", err)
	}
	defer history.Close()

	provider := &mapfetch.ScriptProvider{
		Command:   cfg.GetMapCommand(),
		ImagePath: cfg.GetMapImagePath(),
	}

	// The worker owns the session; everything else only talks to it
	// through the rendezvous channel.
	worker := relay.NewWorker(provider, session, history)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Transmit worker. A failure here is fatal to the whole process:
	// the worker is deliberately unsupervised.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			log.Fatalf("transmit worker failed: %v", err)
		}
		log.Print("transmit worker terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		apiSrv := api.NewServer(worker.Requests(), history)
		apiSrv.AttachAdminRoutes(mux)

		apiMux := apiSrv.ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))
		mux.Handle("/coords/", apiMux)

		// Read static files from the embedded filesystem in production
		// or from the local ./static in dev for easier iteration.
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			embedded, err := fs.Sub(staticFiles, "static")
			if err != nil {
				log.Fatalf("embedded static files missing: %v", err)
			}
			staticHandler = http.FileServer(http.FS(embedded))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("[main] serving on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

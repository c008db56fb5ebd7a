package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jorge1125/mycodo-plant-analyzer/config"
	"github.com/jorge1125/mycodo-plant-analyzer/handlers"
	"github.com/jorge1125/mycodo-plant-analyzer/middleware"
	"github.com/jorge1125/mycodo-plant-analyzer/models"
	"github.com/jorge1125/mycodo-plant-analyzer/services"
	"github.com/jorge1125/mycodo-plant-analyzer/utils"
)

func main() {
	// 1. Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== Configuration ===")
	log.Printf("Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Data source: %s", cfg.DataSource.Method)
	log.Printf("Analysis window: %d days, resample every %d min", cfg.Analysis.WindowDays, cfg.Analysis.ResampleMinutes)
	log.Printf("Scheduler: enabled=%v interval=%dh", cfg.Scheduler.Enabled, cfg.Scheduler.IntervalHours)

	if cfg.Mycodo.Version != "" {
		if msg := utils.GetUpgradeMessage(cfg.Mycodo.Version, nil); msg != "" {
			log.Printf("⚠️  %s", msg)
		}
	}

	// 2. Plant profiles
	profiles, err := config.LoadProfiles(cfg.Profiles.Path)
	if err != nil {
		log.Fatalf("Failed to load plant profiles from %s: %v", cfg.Profiles.Path, err)
	}
	log.Printf("Loaded %d plant profiles from %s", len(profiles), cfg.Profiles.Path)

	// 3. Core Services - Initialize
	source, err := services.NewSeriesSource(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize data source: %v", err)
	}

	mongoService, err := services.NewMongoDBService(cfg)
	if err != nil {
		log.Printf("⚠️  MongoDB connection failed: %v", err)
		log.Println("Run history will be kept in memory only")
		mongoService = nil
	}
	if mongoService != nil {
		defer mongoService.Close()
	}

	discordBot, err := services.NewDiscordBotService(cfg.Notifications.DiscordToken, cfg.Notifications.DiscordChannel)
	if err != nil {
		log.Printf("⚠️  Discord bot initialization failed: %v", err)
		log.Println("Discord notifications will be disabled")
		discordBot = nil
	} else if discordBot != nil {
		defer discordBot.Close()
	}

	mqttService, err := services.NewMQTTService(cfg)
	if err != nil {
		log.Printf("⚠️  MQTT connection failed: %v", err)
		log.Println("MQTT publishing will be disabled")
		mqttService = nil
	}
	if mqttService != nil {
		defer mqttService.Close()
	}

	cache := services.NewCacheService(cfg)
	historyService := services.NewHistoryService(cfg, mongoService)
	notifyService := services.NewNotifyService(cfg, mongoService, discordBot, mqttService)
	scheduler := services.NewScheduler(cfg, source, profiles, historyService, cache, notifyService)

	// 4. One-shot mode: analyze, print, exit. No HTTP server.
	if cfg.Run.Once {
		runOnce(cfg, scheduler)
		cache.Stop()
		return
	}

	// 5. Start services (all loops are lightweight tickers)
	log.Println("=== Starting Services ===")

	cache.Start()
	log.Println("✓ Cache Service started")
	log.Printf("   Mode: %s", cache.GetCacheMode())

	historyService.Start()
	log.Println("✓ History Service started")

	scheduler.Start()
	log.Println("✓ Scheduler started")

	// 6. Web Server Setup
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Recovered from panic: %v", r)
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	// 7. Handlers
	h := handlers.NewHandler(cfg, scheduler, cache, historyService, notifyService, mongoService)
	cacheHandlers := handlers.NewCacheHandlers(cache)

	// 8. Routes
	e.GET("/health", h.GetHealth)
	e.GET("/cache/status", cacheHandlers.GetCacheStatus)
	e.POST("/cache/clear", cacheHandlers.ClearCache)

	api := e.Group("/api")

	api.GET("/status", h.GetStatus)
	api.GET("/notifications", h.GetNotifications)
	api.GET("/stats/db", h.GetDatabaseStats)

	profileRoutes := api.Group("/profiles")
	profileRoutes.GET("", h.GetProfiles)
	profileRoutes.GET("/:name", h.GetProfile)
	profileRoutes.POST("/:name/analyze", h.AnalyzeProfile)
	profileRoutes.GET("/:name/report", h.GetLatestReport)
	profileRoutes.GET("/:name/runs", h.GetRuns)
	profileRoutes.GET("/:name/history", h.GetRunHistory)
	profileRoutes.GET("/:name/summary", h.GetScoreSummary)

	// 9. Start HTTP Server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	go func() {
		log.Printf("🚀 Server running on http://%s", serverAddr)
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("shutting down the server: %v", err)
		}
	}()

	// Small delay to ensure server is listening
	time.Sleep(200 * time.Millisecond)
	log.Println("✓ HTTP Server ready")

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Graceful shutdown initiated...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Stopping services...")
	scheduler.Stop()
	historyService.Stop()
	cache.Stop()
	log.Println("✓ All services stopped")

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	log.Println("✓ Server exited cleanly")
}

// runOnce analyzes one profile (or all of them when none is named) and
// writes the report JSON to the configured output file or stdout.
func runOnce(cfg *config.Config, scheduler *services.Scheduler) {
	ctx := context.Background()

	names := scheduler.ProfileNames()
	target := cfg.Run.Profile
	if target == "" && len(names) == 1 {
		target = names[0]
	}

	if target == "" {
		scheduler.RunAll(ctx, models.TriggerCLI)
		return
	}

	run, err := scheduler.RunProfile(ctx, target, 0, models.TriggerCLI)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	data, err := json.MarshalIndent(run.Report, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}

	if cfg.Run.Output != "" {
		if err := os.WriteFile(cfg.Run.Output, data, 0o644); err != nil {
			log.Fatalf("Failed to write report to %s: %v", cfg.Run.Output, err)
		}
		log.Printf("Report written to %s", cfg.Run.Output)
		return
	}

	fmt.Println(string(data))
}

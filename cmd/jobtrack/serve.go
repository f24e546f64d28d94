package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/generation"
	"github.com/jonathan/job-tracker/internal/render"
	"github.com/jonathan/job-tracker/internal/server"
	"github.com/jonathan/job-tracker/internal/track"
)

var (
	serveConfigPath string
	servePort       int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for documents,
versions, and job applications.

Configuration comes from environment variables (optionally via .env), with
--config layering a JSON file underneath and --port taking priority.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (overridden by environment and flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	if serveConfigPath != "" {
		fileCfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		merged := cfg.MergeWithDefaults(*fileCfg)
		cfg = &merged
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = strconv.Itoa(servePort)
	}
	merged := cfg.MergeWithDefaults(config.Config{Port: "8080"})
	cfg = &merged

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := generation.NewGeminiClient(ctx, generation.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	customizer, err := generation.NewCustomizer(client)
	if err != nil {
		return fmt.Errorf("failed to create customizer: %w", err)
	}

	port, _ := strconv.Atoi(cfg.Port)
	generationTimeout := cfg.GenerationTimeout()
	if generationTimeout == 0 {
		generationTimeout = track.DefaultGenerationTimeout
	}
	pdfTimeout := cfg.PDFTimeout()
	if pdfTimeout == 0 {
		pdfTimeout = render.DefaultPDFTimeout
	}

	srv, err := server.New(server.Config{
		Port:              port,
		DatabaseURL:       cfg.DatabaseURL,
		APIKey:            cfg.GeminiAPIKey,
		GenerationTimeout: generationTimeout,
		PDFTimeout:        pdfTimeout,
	}, customizer)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

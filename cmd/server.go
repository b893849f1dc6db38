package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/textpanel/internal/db"
	"github.com/ziadkadry99/textpanel/internal/panels"
	"github.com/ziadkadry99/textpanel/internal/server"
	"github.com/ziadkadry99/textpanel/internal/variables"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the panel server",
	Long:  `Starts the textpanel HTTP server with the panel and variable REST API, panel pages and live update sockets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}

		dbPath := cfg.DatabasePath()
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		ctx := context.Background()

		vars := variables.NewService(variables.NewStore(database))
		if err := vars.Load(ctx); err != nil {
			return err
		}
		if err := seedVariables(ctx, vars, cfg.Variables); err != nil {
			return err
		}

		proc := newProcessor(cfg, vars)
		registry := panels.NewRegistry(panels.NewStore(database), proc, panels.NewHub(), cfg.Debounce())
		defer registry.Close()
		registry.SetDefaultMode(cfg.DefaultMode)

		loaded, err := registry.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading panels: %w", err)
		}

		// Any variable may be referenced by any panel.
		vars.Subscribe(registry.UpdateAll)

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		}, database)
		panels.RegisterRoutes(srv.Router(), registry)
		variables.RegisterRoutes(srv.Router(), vars)

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-sigCtx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "textpanel server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Panels loaded: %d\n", loaded)
		fmt.Fprintf(os.Stderr, "  Variables: %d\n", len(vars.List()))
		if cfg.DisableSanitizeHTML {
			fmt.Fprintln(os.Stderr, "  Warning: HTML sanitizing is disabled")
		}

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}

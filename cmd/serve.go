package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/textpanel/internal/db"
	mcpserver "github.com/ziadkadry99/textpanel/internal/mcp"
	"github.com/ziadkadry99/textpanel/internal/panels"
	"github.com/ziadkadry99/textpanel/internal/variables"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing panel rendering tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		vars := variables.NewService(variables.NewStore(database))
		if err := vars.Load(context.Background()); err != nil {
			// Rendering still works without stored variables.
			fmt.Fprintf(os.Stderr, "Warning: could not load variables: %v\n", err)
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "textpanel MCP server started on stdio (db=%s)\n", cfg.DatabasePath())

		srv := mcpserver.NewServer(newProcessor(cfg, vars), panels.NewStore(database))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

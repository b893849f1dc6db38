package cmd

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/db"
	"github.com/ziadkadry99/textpanel/internal/export"
	"github.com/ziadkadry99/textpanel/internal/panels"
	"github.com/ziadkadry99/textpanel/internal/progress"
	"github.com/ziadkadry99/textpanel/internal/variables"
)

var (
	exportRoot   string
	exportGlobs  []string
	exportOut    string
	exportMode   string
	exportPanels bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render files or stored panels to static HTML pages",
	Long: `Renders every file matching --glob (doublestar patterns, relative to --root)
and, with --panels, every stored panel into standalone HTML pages under --out.
Stored dashboard variables are substituted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(exportGlobs) == 0 && !exportPanels {
			return fmt.Errorf("nothing to export: pass --glob and/or --panels")
		}

		mode := content.Mode(exportMode)
		if mode != "" && !mode.Valid() {
			return fmt.Errorf("invalid mode %q: must be one of text, html, markdown", mode)
		}

		ctx := context.Background()
		vars := variables.NewService(nil)
		var docs []export.Document

		if exportPanels {
			database, err := db.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			vars = variables.NewService(variables.NewStore(database))
			if err := vars.Load(ctx); err != nil {
				return err
			}

			list, err := panels.NewStore(database).List(ctx)
			if err != nil {
				return err
			}
			for _, p := range list {
				docs = append(docs, export.Document{
					Name:    path.Join("panels", p.ID),
					Title:   p.Title,
					Options: p.Options,
				})
			}
		}
		if err := seedVariables(ctx, vars, cfg.Variables); err != nil {
			return err
		}

		if len(exportGlobs) > 0 {
			files, err := export.FindFiles(exportRoot, exportGlobs)
			if err != nil {
				return err
			}
			fileDocs, err := export.LoadFiles(exportRoot, files, mode)
			if err != nil {
				return err
			}
			docs = append(docs, fileDocs...)
		}

		if len(docs) == 0 {
			fmt.Fprintln(os.Stderr, "No files or panels matched.")
			return nil
		}

		exporter := export.New(newProcessor(cfg, vars), exportOut, progress.NewReporter("Exporting panels"))
		n, err := exporter.Export(docs)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d pages to %s\n", n, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRoot, "root", ".", "directory the glob patterns are relative to")
	exportCmd.Flags().StringSliceVar(&exportGlobs, "glob", nil, "doublestar pattern of files to export (repeatable)")
	exportCmd.Flags().StringVar(&exportOut, "out", "site", "output directory")
	exportCmd.Flags().StringVar(&exportMode, "mode", "", "force a content mode instead of using file extensions")
	exportCmd.Flags().BoolVar(&exportPanels, "panels", false, "also export every stored panel")
	rootCmd.AddCommand(exportCmd)
}

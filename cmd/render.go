package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/textpanel/internal/config"
	"github.com/ziadkadry99/textpanel/internal/content"
	"github.com/ziadkadry99/textpanel/internal/export"
	"github.com/ziadkadry99/textpanel/internal/variables"
	"github.com/ziadkadry99/textpanel/internal/view"
)

var (
	renderMode            string
	renderVars            []string
	renderPage            bool
	renderDisableSanitize bool
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a file or stdin to panel HTML",
	Long: `Processes content exactly as a panel would and prints the resulting HTML.
Reads stdin when no file is given. The mode defaults to the file extension
(.md -> markdown, .html -> html, anything else -> text), or markdown for stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if renderDisableSanitize {
			cfg.DisableSanitizeHTML = true
		}

		var raw []byte
		mode := content.Mode(renderMode)
		if len(args) == 1 {
			raw, err = os.ReadFile(args[0])
			if mode == "" {
				mode = export.ModeForPath(args[0])
			}
		} else {
			raw, err = io.ReadAll(cmd.InOrStdin())
			if mode == "" {
				mode = content.ModeMarkdown
			}
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if !mode.Valid() {
			return fmt.Errorf("invalid mode %q: must be one of text, html, markdown", mode)
		}

		assigned, err := config.ParseAssignments(renderVars)
		if err != nil {
			return err
		}
		vars := variables.NewService(nil)
		ctx := context.Background()
		if err := seedVariables(ctx, vars, cfg.Variables); err != nil {
			return err
		}
		for name, value := range assigned {
			if _, err := vars.Set(ctx, name, []string{value}); err != nil {
				return err
			}
		}

		html, err := newProcessor(cfg, vars).Process(content.Options{Mode: mode, Content: string(raw)})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if renderPage {
			return view.Render(out, view.Page{HTML: html})
		}
		_, err = fmt.Fprintln(out, html)
		return err
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderMode, "mode", "", "content mode: text, html or markdown")
	renderCmd.Flags().StringArrayVar(&renderVars, "var", nil, "dashboard variable as name=value (repeatable)")
	renderCmd.Flags().BoolVar(&renderPage, "page", false, "wrap the output in a full HTML page")
	renderCmd.Flags().BoolVar(&renderDisableSanitize, "disable-sanitize", false, "skip HTML sanitizing")
	rootCmd.AddCommand(renderCmd)
}

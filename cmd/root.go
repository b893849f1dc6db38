package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "textpanel",
	Short: "Render text, HTML and Markdown dashboard panels",
	Long: `textpanel renders user-supplied text, HTML or Markdown into dashboard
panels. Dashboard variables are substituted into the content and the result
is sanitized before it reaches the browser. Panels re-render live when their
options or the variables they reference change.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".textpanel.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

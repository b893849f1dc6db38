package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/textpanel/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize textpanel configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the panel server and writes the config file (default .textpanel.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

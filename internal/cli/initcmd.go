package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the device config file with current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println("Config written to ~/.hrms-mobile/config.yaml")
		return nil
	},
}

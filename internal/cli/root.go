package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hrms-mobile",
	Short: "HRMS attendance client",
	Long: `hrms-mobile is a device-resident attendance client for the HRMS backend.

It keeps a durable local copy of the session, location, and attendance state
so check-ins survive flaky connectivity, and reconciles that copy with the
server before every action.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkInCmd)
	rootCmd.AddCommand(checkOutCmd)
	rootCmd.AddCommand(daemonCmd)
}

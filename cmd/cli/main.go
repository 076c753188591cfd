package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverFlag string
	tokenFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "reportdash",
	Short: "ReportDash CLI - project status report dispatch",
	Long: `ReportDash CLI is a command-line tool for operating the project status
reporting dashboard: trigger report and reminder dispatch, inspect and
edit the schedule, and manage recipients.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "API server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "API token (default $REPORTDASH_TOKEN)")

	rootCmd.AddCommand(newLoginCommand())
	rootCmd.AddCommand(newSendCommand())
	rootCmd.AddCommand(newRemindersCommand())
	rootCmd.AddCommand(newScheduleCommand())
	rootCmd.AddCommand(newRecipientsCommand())
	rootCmd.AddCommand(newHistoryCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

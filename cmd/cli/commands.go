package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/reportdash/internal/api/client"
	"github.com/reportdash/internal/recipient"
	"github.com/spf13/cobra"
)

func apiClient() *client.Client {
	return client.NewClient(serverFlag, tokenFlag)
}

func newLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to ReportDash and print an API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := apiClient().Login(username, password)
			if err != nil {
				return fmt.Errorf("login failed: %v", err)
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newSendCommand() *cobra.Command {
	var testEmail string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Trigger a report dispatch run",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := apiClient().SendReport(testEmail)
			if err != nil {
				return err
			}

			if resp.Skipped {
				fmt.Printf("Report skipped: %s\n", resp.Reason)
			} else {
				fmt.Printf("Report: sent=%d failed=%d\n", resp.Sent, resp.Failed)
			}
			if resp.Reminders != nil {
				if resp.Reminders.Skipped {
					fmt.Printf("Reminders skipped: %s\n", resp.Reminders.Reason)
				} else {
					fmt.Printf("Reminders: sent=%d failed=%d\n", resp.Reminders.Sent, resp.Reminders.Failed)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&testEmail, "test", "", "comma-separated test addresses; bypasses recipients and the send-day gate")
	return cmd
}

func newRemindersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Trigger a PM reminder run",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient().SendReminders()
			if err != nil {
				return err
			}
			if result.Skipped {
				fmt.Printf("Skipped: %s\n", result.Reason)
				return nil
			}
			fmt.Printf("Reminders: sent=%d failed=%d\n", result.Sent, result.Failed)
			return nil
		},
	}
}

func newScheduleCommand() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and edit the report schedule",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the current schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := apiClient().GetSchedule()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintf(w, "Frequency:\t%s\n", cfg.Frequency)
			fmt.Fprintf(w, "Day of week:\t%s\n", cfg.DayOfWeek)
			fmt.Fprintf(w, "Send time:\t%s\n", cfg.SendTime)
			fmt.Fprintf(w, "Send date override:\t%s\n", cfg.SendDate)
			fmt.Fprintf(w, "Enabled:\t%t\n", cfg.Enabled)
			fmt.Fprintf(w, "PM reminder day:\t%s\n", cfg.PMReminderDay)
			fmt.Fprintf(w, "Final reminder days:\t%d\n", cfg.PMFinalReminderDays)
			fmt.Fprintf(w, "Start weeks before:\t%d\n", cfg.PMStartWeeksBefore)
			w.Flush()
			return nil
		},
	}

	var (
		frequency, dayOfWeek, sendTime, sendDate, reminderDay string
		enabled                                               bool
		finalDays, startWeeks                                 int
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the schedule configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := apiClient().UpdateSchedule(map[string]interface{}{
				"frequency":              frequency,
				"day_of_week":            dayOfWeek,
				"time":                   sendTime,
				"send_date":              sendDate,
				"enabled":                enabled,
				"pm_reminder_day":        reminderDay,
				"pm_final_reminder_days": finalDays,
				"pm_start_weeks_before":  startWeeks,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Schedule updated: %s at %s (enabled=%t)\n", cfg.Frequency, cfg.SendTime, cfg.Enabled)
			return nil
		},
	}
	setCmd.Flags().StringVar(&frequency, "frequency", "monthly", "daily, weekly or monthly")
	setCmd.Flags().StringVar(&dayOfWeek, "day", "", "weekday name (weekly frequency)")
	setCmd.Flags().StringVar(&sendTime, "time", "08:00", "send time HH:MM UTC")
	setCmd.Flags().StringVar(&sendDate, "date", "", "explicit send date YYYY-MM-DD override")
	setCmd.Flags().BoolVar(&enabled, "enabled", true, "whether the schedule is enabled")
	setCmd.Flags().StringVar(&reminderDay, "reminder-day", "", "weekday for weekly PM reminders")
	setCmd.Flags().IntVar(&finalDays, "final-days", 1, "days before send date closing the reminder window")
	setCmd.Flags().IntVar(&startWeeks, "start-weeks", 2, "weeks before send date opening the reminder window")

	scheduleCmd.AddCommand(getCmd, setCmd)
	return scheduleCmd
}

func newRecipientsCommand() *cobra.Command {
	recipientsCmd := &cobra.Command{
		Use:   "recipients",
		Short: "Manage report recipients",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recipients",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipients, err := apiClient().ListRecipients()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "EMAIL\tPLANTS\tDISCIPLINES\tPM\tPROJECTS\t")
			for _, r := range recipients {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t\n",
					r.Email,
					strings.Join(r.Plants, ","),
					strings.Join(r.Disciplines, ","),
					r.IsPM,
					len(r.ProjectIDs))
			}
			w.Flush()
			return nil
		},
	}

	var (
		plants, disciplines string
		projectIDs          []int
		isPM                bool
	)
	addCmd := &cobra.Command{
		Use:   "add [email]",
		Short: "Add a recipient (merges into an existing one by email)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := recipient.UpsertInput{
				Email:       args[0],
				Plants:      splitFlag(plants),
				Disciplines: splitFlag(disciplines),
				ProjectIDs:  projectIDs,
			}
			if cmd.Flags().Changed("pm") {
				in.IsPM = &isPM
			}

			rec, err := apiClient().UpsertRecipient(in)
			if err != nil {
				return err
			}
			fmt.Printf("Saved recipient %s\n", rec.Email)
			return nil
		},
	}
	addCmd.Flags().StringVar(&plants, "plants", "", "comma-separated plant tags")
	addCmd.Flags().StringVar(&disciplines, "disciplines", "", "comma-separated discipline tags")
	addCmd.Flags().IntSliceVar(&projectIDs, "projects", nil, "project IDs (PM recipients)")
	addCmd.Flags().BoolVar(&isPM, "pm", false, "mark as project manager")

	recipientsCmd.AddCommand(listCmd, addCmd)
	return recipientsCmd
}

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the dispatch audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := apiClient().ListHistory(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "SENT AT\tRECIPIENTS\tFAILURES\tTRIGGER\tTEST EMAIL\t")
			for _, h := range history {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t\n",
					h.SentAt.Format("2006-01-02 15:04"),
					h.Recipients,
					h.Failures,
					h.TriggeredBy,
					h.TestEmail)
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of rows to show")
	return cmd
}

func splitFlag(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List configured download clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tKIND\tDEFAULT")
		for _, c := range services.Downloads.Clients() {
			def := ""
			if c.Default {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Kind, def)
		}
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show submission history",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if stats, _ := cmd.Flags().GetBool("stats"); stats {
			s, err := services.Downloads.Stats()
			if err != nil {
				return err
			}
			fmt.Println("Submission Statistics:")
			fmt.Printf("  Total:     %d\n", s.Total)
			fmt.Printf("  Pending:   %d\n", s.Pending)
			fmt.Printf("  Succeeded: %d\n", s.Succeeded)
			fmt.Printf("  Failed:    %d\n", s.Failed)
			return nil
		}

		filters := make(map[string]interface{})
		if client, _ := cmd.Flags().GetString("client"); client != "" {
			filters["client"] = client
		}
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			filters["status"] = status
		}
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := services.Downloads.History(filters, limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCLIENT\tSTATUS\tTITLE\tWHEN")
		for _, r := range records {
			status := string(r.Status)
			if r.Cause != "" {
				status += " (" + string(r.Cause) + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(r.ID, 8),
				r.Client,
				status,
				truncate(r.Title, 60),
				humanize.Time(r.CreatedAt))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().String("client", "", "Filter by client name")
	historyCmd.Flags().StringP("status", "s", "", "Filter by status (pending, succeeded, failed)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of records")
	historyCmd.Flags().Bool("stats", false, "Show totals instead of records")
}

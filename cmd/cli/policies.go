package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	policiesRoom   string
	policiesStart  string
	policiesEnd    string
	policiesOutput string
)

// policiesCmd represents the policies command
var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Dump the normalized policy window for a room",
	Long: `Fetch the per-day price policies for one room over an inclusive date
range and print them after normalization. Useful for checking what the policy
backend actually returns: field synonyms are resolved and missing flags get
their defaults, exactly as the quoter sees them.`,
	Example: `  availability policies --room 7 --start 2025-01-10 --end 2025-01-11
  availability policies --room 7 --start 2025-01-10 --end 2025-01-11 --output json`,
	RunE: runPolicies,
}

func init() {
	rootCmd.AddCommand(policiesCmd)

	policiesCmd.Flags().StringVar(&policiesRoom, "room", "", "Room ID (required)")
	policiesCmd.Flags().StringVar(&policiesStart, "start", "", "Start date, YYYY-MM-DD (required)")
	policiesCmd.Flags().StringVar(&policiesEnd, "end", "", "End date, YYYY-MM-DD (required)")
	policiesCmd.Flags().StringVar(&policiesOutput, "output", "table", "Output format: table or json")
	policiesCmd.MarkFlagRequired("room")
	policiesCmd.MarkFlagRequired("start")
	policiesCmd.MarkFlagRequired("end")
}

func runPolicies(cmd *cobra.Command, args []string) error {
	client, err := newPolicyClient()
	if err != nil {
		return err
	}

	records, err := client.FetchDailyPolicies(context.Background(), policiesRoom, policiesStart, policiesEnd)
	if err != nil {
		return fmt.Errorf("policy fetch failed: %w", err)
	}

	if policiesOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Date", "Price", "Active", "Stock", "Sellable")
	for _, r := range records {
		price := "-"
		if r.Price != nil {
			price = fmt.Sprintf("%.0f", *r.Price)
		}
		table.Append(r.Date, price, fmt.Sprintf("%t", r.Active), fmt.Sprintf("%d", r.Stock), fmt.Sprintf("%t", r.Sellable()))
	}
	table.Render()

	fmt.Printf("\n%d policy day(s) for room %s\n", len(records), policiesRoom)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stayhub/availability-service/internal/policy"
	"github.com/stayhub/availability-service/internal/quote"
)

var (
	quoteRooms    []string
	quoteCheckIn  string
	quoteCheckOut string
	quoteMode     string
	quoteOutput   string
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute bookability quotes for rooms over a stay",
	Long: `Fetch the per-day price policies for the given rooms, evaluate them
against the stay window, and print the resulting quotes. A room is bookable
only when every night of the stay has an active policy with stock left.

Display modes: FIRST_NIGHT, TOTAL, AVG_PER_NIGHT, MIN_PER_NIGHT (default).`,
	Example: `  availability quote --rooms 7,12 --check-in 2025-01-10 --check-out 2025-01-12
  availability quote --rooms 7 --check-in 2025-01-10 --check-out 2025-01-12 --mode TOTAL --output json`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringSliceVar(&quoteRooms, "rooms", nil, "Room IDs, comma separated (required)")
	quoteCmd.Flags().StringVar(&quoteCheckIn, "check-in", "", "Check-in date, YYYY-MM-DD (required)")
	quoteCmd.Flags().StringVar(&quoteCheckOut, "check-out", "", "Check-out date, YYYY-MM-DD (required)")
	quoteCmd.Flags().StringVar(&quoteMode, "mode", string(policy.DisplayMinPerNight), "Display price mode")
	quoteCmd.Flags().StringVar(&quoteOutput, "output", "table", "Output format: table or json")
	quoteCmd.MarkFlagRequired("rooms")
	quoteCmd.MarkFlagRequired("check-in")
	quoteCmd.MarkFlagRequired("check-out")
}

func runQuote(cmd *cobra.Command, args []string) error {
	client, err := newPolicyClient()
	if err != nil {
		return err
	}

	quoteCfg := quote.DefaultConfig()
	if cfg != nil {
		quoteCfg.MaxConcurrentFetches = cfg.Quote.MaxConcurrentFetches
		quoteCfg.FetchTimeout = cfg.Quote.FetchTimeout
	}
	quoteCfg.DefaultMode = policy.ParseDisplayMode(quoteMode)

	quoter := quote.NewQuoter(client, quoteCfg, nil)

	quotes, err := quoter.Quote(context.Background(), quote.Request{
		RoomIDs:  quoteRooms,
		CheckIn:  quoteCheckIn,
		CheckOut: quoteCheckOut,
		Mode:     policy.ParseDisplayMode(quoteMode),
	})
	if err != nil {
		return fmt.Errorf("quote failed: %w", err)
	}

	if quoteOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(quotes)
	}

	ids := make([]string, 0, len(quotes))
	for id := range quotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Room", "Bookable", "Display Price", "Reason")
	for _, id := range ids {
		q := quotes[id]
		price := "-"
		if q.DisplayPrice != nil {
			price = fmt.Sprintf("%.0f", *q.DisplayPrice)
		}
		table.Append(id, fmt.Sprintf("%t", q.Bookable), price, q.Reason)
	}
	table.Render()

	fmt.Printf("\n%d room(s), stay %s to %s, mode %s\n",
		len(ids), quoteCheckIn, quoteCheckOut, strings.ToUpper(quoteMode))
	return nil
}

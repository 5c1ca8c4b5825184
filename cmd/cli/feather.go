package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kawaii-gallery/backend/internal/database"
	"github.com/kawaii-gallery/backend/internal/feather"
	"github.com/spf13/cobra"
)

var featherCmd = &cobra.Command{
	Use:   "feather",
	Short: "Inspect and adjust user feather balances",
}

var featherBalanceCmd = &cobra.Command{
	Use:   "balance <user-id>",
	Short: "Show a user's feather balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Initialize(); err != nil {
			return err
		}
		defer database.Close()

		ledger := feather.NewLedger(database.DB)
		balance, err := ledger.Balance(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("user %s: %d feather\n", args[0], balance)
		return nil
	},
}

var featherGrantCmd = &cobra.Command{
	Use:   "grant <user-id> <amount>",
	Short: "Credit feather to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}

		if err := database.Initialize(); err != nil {
			return err
		}
		defer database.Close()

		ledger := feather.NewLedger(database.DB)
		balance, err := ledger.Increment(context.Background(), args[0], amount)
		if err != nil {
			return err
		}
		fmt.Printf("user %s: granted %d, new balance %d\n", args[0], amount, balance)
		return nil
	},
}

func init() {
	featherCmd.AddCommand(featherBalanceCmd)
	featherCmd.AddCommand(featherGrantCmd)
}

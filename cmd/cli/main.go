package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kawaii",
	Short: "kawaii-gallery admin CLI",
	Long: `Admin commands for the kawaii-gallery backend.
Talks directly to the database and Redis, so it needs the same
environment (.env) as the server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: .env file not found, using system environment variables")
		}
	},
}

func init() {
	rootCmd.AddCommand(featherCmd)
	rootCmd.AddCommand(rankingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

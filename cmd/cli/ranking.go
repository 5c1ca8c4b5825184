package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kawaii-gallery/backend/internal/cache"
	"github.com/kawaii-gallery/backend/internal/ranking"
	"github.com/spf13/cobra"
)

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Inspect the daily like leaderboard",
}

var rankingTopCmd = &cobra.Command{
	Use:   "top [n]",
	Short: "Show the top posts by same-day likes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 10
		if len(args) == 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed < 1 {
				return fmt.Errorf("invalid n %q", args[0])
			}
			n = parsed
		}

		rc, err := cache.NewRedisClient(
			envOrDefault("REDIS_HOST", "localhost"),
			envOrDefault("REDIS_PORT", "6379"),
			os.Getenv("REDIS_PASSWORD"),
		)
		if err != nil {
			return err
		}
		defer rc.Close()

		loc, err := time.LoadLocation(envOrDefault("RANKING_TIMEZONE", "Asia/Seoul"))
		if err != nil {
			return err
		}

		board := ranking.NewLeaderboard(rc, loc)
		entries, err := board.TopN(context.Background(), n)
		if errors.Is(err, ranking.ErrLeaderboardEmpty) {
			fmt.Println("leaderboard is empty")
			return nil
		}
		if err != nil {
			return err
		}

		for i, e := range entries {
			fmt.Printf("%2d. %s  (%d likes today)\n", i+1, e.PostID, e.Score)
		}
		return nil
	},
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	rankingCmd.AddCommand(rankingTopCmd)
}

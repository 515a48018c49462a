package main

import (
	"fmt"
	"sort"
	"strings"

	vikasyatra "github.com/chaitanyakanade2405/VikasYatra-AI-for-Personalized-Career-Guidance"
	"github.com/spf13/cobra"
)

// entityAliases maps short CLI names to cache keys.
var entityAliases = map[string]string{
	"profile":   vikasyatra.KeyUserProfile,
	"stats":     vikasyatra.KeyUserStats,
	"dashboard": vikasyatra.KeyDashboardData,
	"quizzes":   vikasyatra.KeyQuizzes,
}

func resolveEntity(name string) (string, error) {
	if key, ok := entityAliases[name]; ok {
		return key, nil
	}
	for _, key := range vikasyatra.EntityKeys {
		if key == name {
			return key, nil
		}
	}
	names := make([]string, 0, len(entityAliases))
	for n := range entityAliases {
		names = append(names, n)
	}
	sort.Strings(names)
	return "", fmt.Errorf("unknown entity %q (valid: %s)", name, strings.Join(names, ", "))
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheUsageCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the offline cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <entity>",
	Short: "Print a cached entity (profile, stats, dashboard, quizzes)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := resolveEntity(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		data, ok := vikasyatra.NewEntityCache(ctx, s.store, key).Read()
		if !ok {
			fmt.Printf("Nothing cached for %s.\n", args[0])
			return nil
		}
		return printJSON(data)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the four cached entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if !vikasyatra.NewEntityCaches(ctx, s.store).ClearAll(ctx) {
			return fmt.Errorf("some cache entries could not be removed")
		}
		fmt.Println("Offline cache cleared.")
		return nil
	},
}

var cacheUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show how much of the cache quota is used",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		u, err := s.store.Usage(ctx, "offline_")
		if err != nil {
			return fmt.Errorf("usage: %w", err)
		}
		if jsonOutput {
			return printJSON(u)
		}
		fmt.Printf("Keys:  %d\n", u.Keys)
		fmt.Printf("Used:  %.1f KB of %.1f KB (%.1f%%)\n", float64(u.UsedBytes)/1024, float64(u.QuotaBytes)/1024, u.Percentage)
		return nil
	},
}

package main

import (
	"context"
	"fmt"
	"time"

	vikasyatra "github.com/chaitanyakanade2405/VikasYatra-AI-for-Personalized-Career-Guidance"
	"github.com/spf13/cobra"
)

var statusProbe bool

func init() {
	statusCmd.Flags().BoolVar(&statusProbe, "probe", false, "Check backend reachability")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and cache freshness",
	Long:  "Display the current configuration and, for each cached entity, whether data is present, when it was last synced and whether it needs a sync.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		conn := vikasyatra.NewConnectivity(true, s.log)
		if statusProbe {
			probeCtx, stop := context.WithTimeout(ctx, 10*time.Second)
			conn.Probe(probeCtx, s.client)
			stop()
		}
		orch := vikasyatra.NewOrchestrator(ctx, s.store, nil, &vikasyatra.SyncOptions{
			Connectivity: conn,
			Logger:       s.log,
		})
		st := orch.Status()

		if jsonOutput {
			return printJSON(st)
		}

		fmt.Println("Configuration:")
		fmt.Printf("  Base URL:      %s\n", s.client.BaseURL())
		fmt.Printf("  Learner:       %s\n", valueOrDefault(s.cfg.Default.UserEmail, "(not set)"))
		fmt.Printf("  Store:         %s\n", valueOrDefault(s.cfg.Store.Backend, "sqlite"))
		if s.cfg.Default.Token != "" {
			fmt.Printf("  Token:         %s\n", maskKey(s.cfg.Default.Token))
		}
		fmt.Printf("  Upload:        %s\n", valueOrDefault(s.cfg.Upload.Provider, "(none)"))

		fmt.Println()
		fmt.Println("Cache:")
		rows := []struct {
			name string
			e    vikasyatra.EntityStatus
		}{
			{"profile", st.UserProfile},
			{"stats", st.UserStats},
			{"dashboard", st.DashboardData},
			{"quizzes", st.QuizzesData},
		}
		for _, r := range rows {
			state := "empty"
			if r.e.HasData {
				state = "cached"
			}
			fresh := "fresh"
			if r.e.NeedsSync {
				fresh = "needs sync"
			}
			fmt.Printf("  %-10s %-7s %-11s %s\n", r.name, state, fresh, valueOrDefault(r.e.LastSync, "never"))
		}

		if statusProbe {
			fmt.Println()
			online := "offline"
			if st.IsOnline {
				online = "online"
			}
			fmt.Printf("Backend: %s\n", online)
		}
		return nil
	},
}

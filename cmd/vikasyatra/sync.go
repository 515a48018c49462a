package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	vikasyatra "github.com/chaitanyakanade2405/VikasYatra-AI-for-Personalized-Career-Guidance"
	"github.com/spf13/cobra"
)

var syncSkipProbe bool

func init() {
	syncCmd.Flags().BoolVar(&syncSkipProbe, "skip-probe", false, "Assume the backend is reachable instead of probing it first")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch remote data and refresh the offline cache",
	Long: "Probe the backend, fetch the learner's stats, roadmaps and quiz history,\n" +
		"and write sanitized profile, stats, dashboard and quiz snapshots to the local cache.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		user, err := s.user()
		if err != nil {
			return err
		}

		conn := vikasyatra.NewConnectivity(true, s.log)
		if !syncSkipProbe {
			probeCtx, stop := context.WithTimeout(ctx, 10*time.Second)
			online := conn.Probe(probeCtx, s.client)
			stop()
			if !online {
				fmt.Println("Backend unreachable; cached data left as is.")
				return nil
			}
		}

		orch := vikasyatra.NewOrchestrator(ctx, s.store, s.client, &vikasyatra.SyncOptions{
			Connectivity: conn,
			Logger:       s.log,
		})
		if !jsonOutput {
			orch.On(vikasyatra.EventSyncEntity, func(_ string, payload any) {
				if r, ok := payload.(vikasyatra.EntityResult); ok {
					mark := "ok"
					if !r.OK {
						mark = "skipped"
					}
					fmt.Printf("  %-24s %s\n", r.Key, mark)
				}
			})
		}

		ok, err := orch.Refresh(ctx, user)
		if errors.Is(err, vikasyatra.ErrNoRemoteData) {
			fmt.Println("No remote data for this learner yet.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if jsonOutput {
			return printJSON(map[string]any{"ok": ok, "status": orch.Status()})
		}
		if ok {
			fmt.Println("Sync complete.")
		} else {
			fmt.Println("Sync finished with some entities skipped.")
		}
		return nil
	},
}

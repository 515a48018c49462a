package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	vikasyatra "github.com/chaitanyakanade2405/VikasYatra-AI-for-Personalized-Career-Guidance"
	"github.com/spf13/cobra"
)

var (
	visualLabel   string
	visualNoWait  bool
	visualBackoff bool

	visualHistoryLimit int
)

func init() {
	for _, c := range []*cobra.Command{visualTextCmd, visualPDFCmd, visualAudioCmd} {
		c.Flags().StringVar(&visualLabel, "label", "", "Label stored with the job")
		c.Flags().BoolVar(&visualNoWait, "no-wait", false, "Submit and exit without polling")
	}
	for _, c := range []*cobra.Command{visualTextCmd, visualPDFCmd, visualAudioCmd, visualResumeCmd} {
		c.Flags().BoolVar(&visualBackoff, "backoff", false, "Poll with exponential backoff instead of every 5s")
	}
	visualHistoryCmd.Flags().IntVarP(&visualHistoryLimit, "limit", "n", 20, "Maximum number of records")

	rootCmd.AddCommand(visualCmd)
	visualCmd.AddCommand(visualTextCmd, visualPDFCmd, visualAudioCmd, visualResumeCmd, visualHistoryCmd)
}

var visualCmd = &cobra.Command{
	Use:   "visual",
	Short: "Generate explainer videos from text, PDFs or audio",
}

var visualTextCmd = &cobra.Command{
	Use:   "text <text...>",
	Short: "Create a video from text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitVisual(vikasyatra.JobInput{Mode: vikasyatra.ModeText, Text: strings.Join(args, " ")})
	},
}

var visualPDFCmd = &cobra.Command{
	Use:   "pdf <file-or-url>",
	Short: "Create a video from a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitMedia(vikasyatra.ModePDF, args[0])
	},
}

var visualAudioCmd = &cobra.Command{
	Use:   "audio <file-or-url>",
	Short: "Create a video from an audio recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return submitMedia(vikasyatra.ModeAudio, args[0])
	},
}

var visualResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume watching a job submitted by an earlier run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		return withPoller(ctx, func(s *session, p *vikasyatra.JobPoller) error {
			if !p.Resume(ctx) {
				fmt.Println("No active job.")
				return nil
			}
			return watch(ctx, p)
		})
	},
}

var visualHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List the learner's generated videos, newest first",
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
		h, err := s.history()
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer h.Close()

		records, err := h.List(ctx, valueOrDefault(user.UID, user.Email), visualHistoryLimit)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		if jsonOutput {
			return printJSON(records)
		}
		if len(records) == 0 {
			fmt.Println("No videos yet.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  %-5s  %-40s  %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04"), r.SourceType, r.InputSample, r.VideoURL)
		}
		return nil
	},
}

// submitMedia treats src as a URL when it has an http(s) scheme and as a
// local file otherwise.
func submitMedia(mode vikasyatra.JobMode, src string) error {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return submitVisual(vikasyatra.JobInput{Mode: mode, URL: src})
	}
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return submitVisual(vikasyatra.JobInput{
		Mode:        mode,
		File:        f,
		FileName:    filepath.Base(src),
		ContentType: contentTypeFor(mode, src),
	})
}

func contentTypeFor(mode vikasyatra.JobMode, name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	if mode == vikasyatra.ModePDF {
		return "application/pdf"
	}
	return "audio/webm"
}

func submitVisual(in vikasyatra.JobInput) error {
	in.Label = visualLabel
	ctx, cancel := commandContext()
	defer cancel()

	return withPoller(ctx, func(s *session, p *vikasyatra.JobPoller) error {
		job, err := p.Submit(ctx, in)
		if err != nil {
			if errors.Is(err, vikasyatra.ErrNoUploader) {
				return fmt.Errorf("%w: set upload.provider or pass a URL", err)
			}
			return fmt.Errorf("submit failed: %w", err)
		}
		if jsonOutput && visualNoWait {
			return printJSON(job)
		}
		fmt.Printf("Job %s submitted (%s).\n", job.JobID, job.Mode)
		if visualNoWait {
			fmt.Println("Run 'vikasyatra visual resume' to follow it.")
			return nil
		}
		return watch(ctx, p)
	})
}

// withPoller opens a session with its uploader and history store and hands
// a configured poller to fn.
func withPoller(ctx context.Context, fn func(*session, *vikasyatra.JobPoller) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := s.user()
	if err != nil {
		return err
	}
	up, release, err := s.uploader(ctx)
	if err != nil {
		return err
	}
	defer release()

	opts := &vikasyatra.JobPollerOptions{
		User:     user,
		Uploader: up,
		Logger:   s.log,
	}
	if h, err := s.history(); err != nil {
		s.log.Warn("history store unavailable", "error", err)
	} else {
		defer h.Close()
		opts.History = h
	}
	if visualBackoff {
		opts.Schedule = vikasyatra.NewBackoffSchedule(2*time.Second, 30*time.Second)
	}
	if !jsonOutput {
		last := -1
		opts.OnUpdate = func(st vikasyatra.JobState) {
			if st.Active && st.Progress != last {
				last = st.Progress
				fmt.Printf("\r  progress: %3d%%", st.Progress)
			}
		}
	}

	return fn(s, vikasyatra.NewJobPoller(s.client.Visual(), s.store, opts))
}

// watch polls until the job ends or the command is interrupted.
func watch(ctx context.Context, p *vikasyatra.JobPoller) error {
	if st := p.State(); st.Active {
		if err := p.Run(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nStopped watching. The job keeps running; resume with 'vikasyatra visual resume'.")
				return nil
			}
			return err
		}
	}

	st := p.State()
	if jsonOutput {
		return printJSON(st)
	}
	fmt.Println()
	switch {
	case st.ResultURL != "":
		fmt.Printf("Video ready: %s\n", st.ResultURL)
	case st.Error != "":
		return fmt.Errorf("generation failed: %s", st.Error)
	}
	return nil
}

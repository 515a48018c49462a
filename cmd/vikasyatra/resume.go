package main

import (
	"fmt"
	"os"
	"strings"

	vikasyatra "github.com/chaitanyakanade2405/VikasYatra-AI-for-Personalized-Career-Guidance"
	"github.com/spf13/cobra"
)

var (
	resumeJob      string
	resumeJobFile  string
	resumeText     string
	resumeFilePath string
)

func init() {
	f := resumeAnalyzeCmd.Flags()
	f.StringVar(&resumeJob, "job", "", "Job description")
	f.StringVar(&resumeJobFile, "job-file", "", "Read the job description from a file")
	f.StringVar(&resumeText, "text", "", "Resume as plain text")
	f.StringVar(&resumeFilePath, "file", "", "Resume file (.pdf or .docx)")
	resumeAnalyzeCmd.MarkFlagsMutuallyExclusive("text", "file")
	resumeAnalyzeCmd.MarkFlagsMutuallyExclusive("job", "job-file")

	rootCmd.AddCommand(resumeCmd)
	resumeCmd.AddCommand(resumeAnalyzeCmd)
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume analysis commands",
}

var resumeAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description",
	Long: "Score a resume against a job description.\n" +
		"Example: vikasyatra resume analyze --job-file posting.txt --file cv.pdf",
	RunE: func(cmd *cobra.Command, args []string) error {
		job := resumeJob
		if resumeJobFile != "" {
			data, err := os.ReadFile(resumeJobFile)
			if err != nil {
				return fmt.Errorf("failed to read job description: %w", err)
			}
			job = string(data)
		}

		ctx, cancel := commandContext()
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		var res *vikasyatra.ResumeAnalysis
		if resumeFilePath != "" {
			res, err = s.client.Resume().AnalyzeFile(ctx, resumeFilePath, job)
		} else {
			res, err = s.client.Resume().Analyze(ctx, vikasyatra.AnalyzeRequest{ResumeText: resumeText, JobDescription: job})
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(res)
		}
		fmt.Printf("Match score: %.0f%%\n", res.MatchScore)
		if res.Summary != "" {
			fmt.Printf("\n%s\n", res.Summary)
		}
		printList("Strengths", res.Strengths)
		printList("Improvements", res.Improvements)
		return nil
	},
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, it := range items {
		fmt.Printf("  - %s\n", strings.TrimSpace(it))
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"castos/internal/api"
	"castos/internal/queueaccess"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		title    string
		plot     string
		plotFile string
		budget   float64
		industry string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a casting job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readPlot(plot, plotFile)
			if err != nil {
				return err
			}
			req := api.SubmitRequest{Title: title, Plot: text, BudgetCap: budget, Industry: industry}

			return ctx.withAccess(cmd.Context(), func(access queueaccess.Access) error {
				job, err := access.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.SubmitResponse{ID: job.ID, Status: job.Status})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d (%s)\n", job.ID, job.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Project title")
	cmd.Flags().StringVar(&plot, "plot", "", "Plot synopsis")
	cmd.Flags().StringVar(&plotFile, "plot-file", "", "Read the plot synopsis from a file")
	cmd.Flags().Float64VarP(&budget, "budget", "b", 0, "Total casting budget")
	cmd.Flags().StringVar(&industry, "industry", "", "Film industry (Hollywood or Bollywood)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("plot", "plot-file")
	return cmd
}

func readPlot(plot, plotFile string) (string, error) {
	if path := strings.TrimSpace(plotFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read plot file: %w", err)
		}
		return string(data), nil
	}
	return plot, nil
}

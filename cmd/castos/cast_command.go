package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"castos/internal/api"
	"castos/internal/casting"
	"castos/internal/daemonrun"
	"castos/internal/logging"
	"castos/internal/pipeline"
)

// castResult is the --json output of the cast command.
type castResult struct {
	Industry    string              `json:"industry"`
	BudgetCap   float64             `json:"budget_cap"`
	Score       float64             `json:"score"`
	TotalSalary float64             `json:"total_salary"`
	Selections  []casting.Selection `json:"selections"`
}

func newCastCommand(ctx *commandContext) *cobra.Command {
	var (
		plot     string
		plotFile string
		budget   float64
		industry string
		asJSON   bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "cast",
		Short: "Run the full casting pipeline in the foreground without queueing a job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text, err := readPlot(plot, plotFile)
			if err != nil {
				return err
			}
			// Reuse submission validation; the title is not used here.
			req := api.SubmitRequest{Title: "cast", Plot: text, BudgetCap: budget, Industry: industry}
			if err := api.NewJobService(nil).Validate(req); err != nil {
				return err
			}

			level := "warn"
			if verbose {
				level = cfg.Logging.Level
			}
			logger, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format, OutputPaths: []string{"stderr"}})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			components, err := daemonrun.NewComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			market := casting.MarketFor(industry)
			raw, err := components.Pipeline.Run(cmd.Context(), pipeline.Request{
				Plot:      req.Plot,
				BudgetCap: budget,
				Industry:  market.Industry,
			})
			if err != nil {
				return fmt.Errorf("casting pipeline: %w", err)
			}
			result, err := components.Optimizer.Optimize(cmd.Context(), raw.Characters, budget)
			if err != nil {
				return fmt.Errorf("optimize cast: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, castResult{
					Industry:    market.Industry,
					BudgetCap:   budget,
					Score:       result.Score,
					TotalSalary: result.TotalSalary,
					Selections:  result.Selections,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSelections(market.Industry, result.Selections))
			fmt.Fprintf(out, "Budget %s, score %.3f\n", formatAmount(market.Industry, budget), result.Score)
			return nil
		},
	}

	cmd.Flags().StringVar(&plot, "plot", "", "Plot synopsis")
	cmd.Flags().StringVar(&plotFile, "plot-file", "", "Read the plot synopsis from a file")
	cmd.Flags().Float64VarP(&budget, "budget", "b", 0, "Total casting budget")
	cmd.Flags().StringVar(&industry, "industry", "", "Film industry (Hollywood or Bollywood)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
	cmd.MarkFlagsMutuallyExclusive("plot", "plot-file")
	return cmd
}

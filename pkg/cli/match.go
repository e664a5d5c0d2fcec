package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/artem13815/jobmatch/pkg/app"
	"github.com/artem13815/jobmatch/pkg/filter"
	"github.com/artem13815/jobmatch/pkg/matching"
)

type matchFlags struct {
	limit    int
	minScore float64
	spec     filter.Spec
	save     bool
	output   string
}

func (r *root) matchCommand() *cobra.Command {
	var f matchFlags
	cmd := &cobra.Command{
		Use:   "match <candidate-id>",
		Short: "Rank the job corpus for one candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-score") {
				f.spec.MinScore = &f.minScore
			}
			return r.match(cmd, args[0], f)
		},
	}
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "maximum number of results (default from MATCH_LIMIT)")
	cmd.Flags().Float64Var(&f.minScore, "min-score", 0, "drop results below this overall score")
	cmd.Flags().StringSliceVar(&f.spec.WorkMode, "work-mode", nil, "keep only these work modes (Remote, Hybrid, Onsite)")
	cmd.Flags().StringSliceVar(&f.spec.ContractType, "contract-type", nil, "keep only these contract types")
	cmd.Flags().StringSliceVar(&f.spec.Location, "location", nil, "keep jobs whose location contains one of these")
	cmd.Flags().StringSliceVar(&f.spec.MustHaveSkills, "must-have", nil, "skills every result must have matched")
	cmd.Flags().BoolVar(&f.save, "save", false, "persist the ranking after printing it")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "output format: table or json")
	return cmd
}

func (r *root) match(cmd *cobra.Command, candidateID string, f matchFlags) error {
	if f.output != "table" && f.output != "json" {
		return fmt.Errorf("unknown output format %q", f.output)
	}
	cfg, err := r.config()
	if err != nil {
		return err
	}
	log, err := r.logger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	a, err := app.Build(ctx, cfg, log, app.Options{WithoutFeed: !f.save})
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.Service.Match(ctx, candidateID, matching.Options{Limit: f.limit, Filters: f.spec})
	if err != nil {
		return err
	}
	if f.output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else if err := printTable(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	if f.save {
		n, err := a.Service.SaveResults(ctx, candidateID)
		if err != nil {
			return err
		}
		log.Info("results saved", zap.String("candidate_id", candidateID), zap.Int("count", n))
	}
	return nil
}

func printTable(w io.Writer, out matching.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tJOB\tTITLE\tCOMPANY\tLOCATION\tMISSING SKILLS")
	for i, r := range out.Results {
		fmt.Fprintf(tw, "%d\t%.1f\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.OverallScore, r.JobID, r.Job.Title, r.Job.Company, r.Job.Location,
			strings.Join(r.MissingSkills, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d shown, %d ranked, %d skipped, cached: %t\n",
		len(out.Results), out.Total, out.Skipped, out.Cached)
	return err
}

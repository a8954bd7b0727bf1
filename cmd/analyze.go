package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/deal-engine/internal/engine"
	"github.com/sells-group/deal-engine/internal/policy"
)

var (
	analyzeInput     string
	analyzeOverrides string
	analyzeNoTrace   bool
	analyzeRefYear   int
	analyzeSummary   bool
	analyzePersist   bool
	analyzeLabel     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single deal",
	Long:  "Reads a deal request from a JSON file (or stdin with -), runs the full underwriting pass, and prints the response envelope.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, err := readAnalyzeInput(analyzeInput)
		if err != nil {
			return err
		}

		if analyzeNoTrace {
			off := false
			if in.Options == nil {
				in.Options = &engine.Options{}
			}
			in.Options.Trace = &off
		}
		if analyzeRefYear != 0 {
			if in.Options == nil {
				in.Options = &engine.Options{}
			}
			in.Options.ReferenceYear = analyzeRefYear
		}

		base, err := basePolicy(analyzeOverrides)
		if err != nil {
			return err
		}

		eng := engine.New(base, time.Now().Year())
		res, err := eng.Analyze(ctx, *in)

		var resp engine.Response
		if err != nil {
			resp = engine.Failure(err)
		} else {
			resp = engine.Success(res)
		}

		if analyzePersist {
			if perr := persistResponse(ctx, resp); perr != nil {
				zap.L().Warn("persist analysis run failed", zap.Error(perr))
			}
		}

		if analyzeSummary && resp.OK {
			printSummary(os.Stdout, resp.Result)
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "-", "deal request JSON file (- for stdin)")
	analyzeCmd.Flags().StringVar(&analyzeOverrides, "overrides", "", "policy overrides YAML file (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeNoTrace, "no-trace", false, "omit the audit trace from the result")
	analyzeCmd.Flags().IntVar(&analyzeRefYear, "reference-year", 0, "reference year for systems age math (default: current year)")
	analyzeCmd.Flags().BoolVar(&analyzeSummary, "summary", false, "print a human-readable summary instead of JSON")
	analyzeCmd.Flags().BoolVar(&analyzePersist, "persist", false, "store the analysis run")
	analyzeCmd.Flags().StringVar(&analyzeLabel, "label", "", "label for the persisted run")
	rootCmd.AddCommand(analyzeCmd)
}

func readAnalyzeInput(path string) (*engine.AnalyzeInput, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open deal request")
		}
		defer f.Close()
		r = f
	}

	var in engine.AnalyzeInput
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		return nil, eris.Wrap(err, "decode deal request")
	}
	return &in, nil
}

// basePolicy composes the default policy with the override file, falling
// back to the configured path. Per-request sandbox options layer on top
// inside the engine.
func basePolicy(path string) (policy.Policy, error) {
	base := policy.Default()

	if path == "" {
		path = cfg.Engine.PolicyOverridesPath
	}
	if path == "" {
		return base, nil
	}

	ov, err := policy.LoadOverrides(path)
	if err != nil {
		return policy.Policy{}, eris.Wrap(err, "load policy overrides")
	}
	return policy.Compose(base, ov), nil
}

func persistResponse(ctx context.Context, resp engine.Response) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	return persistRun(ctx, st, newStoreBreaker(), analyzeLabel, resp)
}

// printSummary renders the key figures of a result for terminal use.
func printSummary(w io.Writer, res *engine.Result) {
	p := message.NewPrinter(language.English)
	o := res.Outputs

	fmt.Fprintf(w, "Recommendation:   %s\n", o.Recommendation)
	fmt.Fprintf(w, "Workflow state:   %s\n", o.WorkflowState)
	fmt.Fprintf(w, "Confidence:       %s\n", o.ConfidenceGrade)
	p.Fprintf(w, "Buyer ceiling:    $%.0f\n", o.BuyerCeiling)
	p.Fprintf(w, "Respect floor:    $%.0f\n", o.RespectFloor)
	p.Fprintf(w, "Cash spread:      $%.0f (%s)\n", o.SpreadCash, o.CashGateStatus)

	if o.RiskGates != nil {
		fmt.Fprintf(w, "Risk score:       %.0f (%s)\n", o.RiskGates.RiskScore, o.RiskGates.RiskBand)
	}
	if len(o.BlockingFactors) > 0 {
		fmt.Fprintf(w, "Blocking:         %s\n", strings.Join(o.BlockingFactors, "; "))
	}
	if len(res.InfoNeeded) > 0 {
		fmt.Fprintln(w, "Info needed:")
		for _, item := range res.InfoNeeded {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
	if o.Rationale != "" {
		fmt.Fprintf(w, "Rationale:        %s\n", o.Rationale)
	}
}

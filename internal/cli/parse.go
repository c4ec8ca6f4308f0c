package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/periodize/internal/model"
	"github.com/ppiankov/periodize/internal/period"
	"github.com/ppiankov/periodize/internal/pipeline"
)

var (
	explain     bool
	parseJSON   bool
	periodsFile string
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <text>...",
	Short: "Normalize, date and classify dating descriptions",
	Long: `Parse runs each argument through the normalizer, the year extraction
rules and the period classifier, and prints the result.

Use "-" to read one description per line from stdin.

Example:
  periodize parse "IV century BC"
  periodize parse "2nd half of the 1st millennium BC" "Roman time" --explain
  cut -d, -f3 objects.csv | periodize parse - --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&explain, "explain", false, "show the rule, candidate periods and override used")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print one JSON object per line")
	parseCmd.Flags().StringVar(&periodsFile, "periods", "", "YAML period table (default: built-in table)")
}

// parsed is the JSON form of one parse result
type parsed struct {
	Raw        string   `json:"raw"`
	Normalized string   `json:"date_normalized"`
	Year       *int     `json:"year_for_timeline"`
	Rule       string   `json:"rule,omitempty"`
	Period     string   `json:"period_category"`
	Outcome    string   `json:"outcome,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if periodsFile != "" {
		cfg.Periods.File = periodsFile
	}

	classifier, err := pipeline.BuildClassifier(cfg.Periods)
	if err != nil {
		return fmt.Errorf("load periods: %w", err)
	}
	p := pipeline.New(classifier, pipeline.WithLogger(newLogger(cfg.Output.Verbose)))

	inputs, err := parseInputs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for i, raw := range inputs {
		d, decision := p.Explain(raw)

		if parseJSON {
			if err := enc.Encode(toParsed(d, decision, explain)); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			continue
		}

		if i > 0 {
			fmt.Fprintln(out)
		}
		printDating(out, d, decision, explain)
	}

	return nil
}

// parseInputs expands "-" into the lines of stdin
func parseInputs(args []string, stdin io.Reader) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		if arg != "-" {
			inputs = append(inputs, arg)
			continue
		}

		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}
	return inputs, nil
}

func toParsed(d model.Dating, decision period.Decision, withExplain bool) parsed {
	out := parsed{
		Raw:        d.Raw,
		Normalized: d.Normalized,
		Rule:       d.Rule,
		Period:     d.Period,
	}
	if y, ok := d.Year.Value(); ok {
		out.Year = &y
	}
	if withExplain {
		out.Outcome = string(decision.Outcome)
		for _, c := range decision.Candidates {
			out.Candidates = append(out.Candidates, c.Name)
		}
	}
	return out
}

func printDating(w io.Writer, d model.Dating, decision period.Decision, withExplain bool) {
	year := d.Year.String()
	if year == "" {
		year = "(unknown)"
	}

	fmt.Fprintf(w, "  Input:       %s\n", d.Raw)
	fmt.Fprintf(w, "  Normalized:  %s\n", d.Normalized)
	fmt.Fprintf(w, "  Year:        %s\n", year)
	fmt.Fprintf(w, "  Period:      %s\n", d.Period)

	if !withExplain {
		return
	}

	rule := d.Rule
	if rule == "" {
		rule = "(none)"
	}
	fmt.Fprintf(w, "  Rule:        %s\n", rule)
	fmt.Fprintf(w, "  Outcome:     %s\n", decision.Outcome)
	for _, c := range decision.Candidates {
		fmt.Fprintf(w, "  Candidate:   %s [%d, %d]\n", c.Name, c.Start, c.End)
	}
	if decision.Override != nil {
		fmt.Fprintf(w, "  Override:    %s\n", describeOverride(*decision.Override))
	}
}

func describeOverride(o period.Override) string {
	switch o.Strategy {
	case period.StrategyCutoff:
		return fmt.Sprintf("%s before %d, %s from %d on", o.Before, o.Cutoff, o.After, o.Cutoff)
	default:
		return fmt.Sprintf("%s over %s", o.Prefer, other(o))
	}
}

func other(o period.Override) string {
	if o.Periods[0] == o.Prefer {
		return o.Periods[1]
	}
	return o.Periods[0]
}

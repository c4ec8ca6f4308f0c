package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/periodize/internal/period"
	"github.com/ppiankov/periodize/internal/pipeline"
)

var periodsYAML bool

// periodsCmd represents the periods command
var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "Show the period table and overlap overrides",
	Long: `Periods prints the period table in priority order, the overrides used
where periods overlap, and the labels for years outside the table.

With --yaml the table is printed in the file format accepted by --periods,
which is a convenient starting point for a custom table.

Example:
  periodize periods
  periodize periods --yaml > my-periods.yaml
  periodize clean objects.csv --periods my-periods.yaml`,
	Args: cobra.NoArgs,
	RunE: runPeriods,
}

func init() {
	rootCmd.AddCommand(periodsCmd)

	periodsCmd.Flags().BoolVar(&periodsYAML, "yaml", false, "print the table as YAML")
	periodsCmd.Flags().StringVar(&periodsFile, "periods", "", "YAML period table (default: built-in table)")
}

func runPeriods(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if periodsFile != "" {
		cfg.Periods.File = periodsFile
	}

	c, err := pipeline.BuildClassifier(cfg.Periods)
	if err != nil {
		return fmt.Errorf("load periods: %w", err)
	}

	out := cmd.OutOrStdout()

	if periodsYAML {
		data, err := period.Marshal(c.Table(), c.Overrides())
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTART\tEND\tPERIOD")
	for i, p := range c.Table().Periods() {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", i+1, p.Start, p.End, p.DisplayLabel())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rules := c.Overrides().Rules(); len(rules) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Overrides (first applicable wins):")
		for i, o := range rules {
			fmt.Fprintf(out, "  %d. %s / %s: %s\n", i+1, o.Periods[0], o.Periods[1], describeOverride(o))
		}
	}

	labels := c.Labels()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Before the table:  %s\n", labels.Below)
	fmt.Fprintf(out, "After the table:   %s\n", labels.Above)
	fmt.Fprintf(out, "Unknown or gap:    %s\n", labels.Unknown)

	return nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MannanGupta05/buildplanwizard/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect rule sets",
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective rule set as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("rules")
		rc, err := loadRuleSet(path)
		if err != nil {
			return err
		}
		return writeRuleSet(os.Stdout, rc)
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules in evaluation order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("rules")
		engine, err := initEngine(path)
		if err != nil {
			return err
		}
		formatRuleList(os.Stdout, engine.Rules())
		return nil
	},
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check <rule-set.yaml>",
	Short: "Validate a rule set file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := rules.LoadConfig(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: ok (%d room categories, %d coverage tiers)\n",
			args[0], len(rc.Rooms), len(rc.Coverage.Tiers))
		return nil
	},
}

func init() {
	rulesShowCmd.Flags().String("rules", "", "rule set YAML file (default from config, else built-in)")
	rulesListCmd.Flags().String("rules", "", "rule set YAML file (default from config, else built-in)")

	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rootCmd.AddCommand(rulesCmd)
}

func writeRuleSet(w io.Writer, rc rules.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rc); err != nil {
		return eris.Wrap(err, "rules: encode yaml")
	}
	return eris.Wrap(enc.Close(), "rules: encode yaml")
}

func formatRuleList(out io.Writer, infos []rules.RuleInfo) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tRULE\tKEY")
	for _, r := range infos {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", r.Number, r.Name, r.Key)
	}
	_ = w.Flush()
}

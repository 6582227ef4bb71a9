// vetassist runs the veterinary diagnosis wizard: as an MCP tool server for
// agents, as a one-shot CLI diagnosis, or over YAML case files in batch.
//
// Usage:
//
//	vetassist serve
//	vetassist diagnose --animal cat --symptom sneeze --symptom nasal-discharge [--image pet.jpg]
//	vetassist batch cases.yaml
//	vetassist catalog [--jq '.symptoms[].id']
//	vetassist history [--animal cat] [--since 24h]
//	vetassist runs <session-id>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions carries the resolved configuration to subcommands.
type rootOptions struct {
	settingsPath string
	getenv       func(string) string
	cfg          Config
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "vetassist",
		Short: "Guided veterinary pre-diagnosis wizard",
		Long: "VetAssist walks through animal selection, symptoms and an optional photo,\n" +
			"runs a rule-based analysis and suggests a treatment plan.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.settingsPath, opts.getenv)
			if err != nil {
				return err
			}
			applyFlags(&cfg, cmd.Flags())
			opts.cfg = cfg
			return nil
		},
	}
	root.Version = version

	pf := root.PersistentFlags()
	pf.String("db", "", "history database path (default: ~/.vetassist/vetassist.db)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("rules", "", "diagnosis rules YAML (default: built-in rules)")

	root.AddCommand(
		newServeCmd(opts),
		newDiagnoseCmd(opts),
		newBatchCmd(opts),
		newCatalogCmd(opts),
		newHistoryCmd(opts),
		newRunsCmd(opts),
		newVersionCmd(),
	)
	return root
}

func main() {
	opts := &rootOptions{settingsPath: settingsPath(), getenv: os.Getenv}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Copyright 2025 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package cli

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relopt/relopt/pkg/sql/opt/hep"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/sql/opt/testutils/testexpr"
	"github.com/relopt/relopt/pkg/sql/opt/xform"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var optCmd = &cobra.Command{
	Use:   "opt [file]",
	Short: "find the cheapest plan of an expression",
	Long: `
Reads one relational expression from the file, or from standard input if
the file is omitted or is "-", and prints the cheapest plan providing the
required convention, followed by its cost.
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOpt,
}

func runOpt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings, err := cfg.OptimizerSettings()
	if err != nil {
		return err
	}
	rules, err := cfg.RuleRegistry()
	if err != nil {
		return err
	}
	graph, err := cfg.ConversionGraph()
	if err != nil {
		return err
	}
	e, err := readExpr(cmd, args, cfg)
	if err != nil {
		return err
	}

	o := xform.New(rules, graph, settings)
	reg := prometheus.NewRegistry()
	if cliCtx.showMetrics {
		m := xform.NewMetrics()
		if err := m.Register(reg); err != nil {
			return err
		}
		o.SetMetrics(m)
	}

	plan, err := o.Optimize(cmd.Context(), e, cfg.RequiredTraits())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprint(w, memo.FormatExpr(plan, exprFormat()))
	fmt.Fprintf(w, "cost: %s\n", memo.TreeCost(plan, settings.Coster, memo.TreeMetadata))
	if cliCtx.showDot {
		fmt.Fprint(w, o.Memo().Dot())
	}
	return writeReport(w, o.RuleStats(), o.Steps(), o.BudgetExhausted(), reg)
}

var hepCmd = &cobra.Command{
	Use:   "hep [file]",
	Short: "rewrite an expression with the heuristic planner",
	Long: `
Reads one relational expression from the file, or from standard input if
the file is omitted or is "-", applies the heuristic program of the config
file and prints the rewritten expression. Without a program, the
normalization rules are applied top-down. The --rules flag replaces the
program by a single instruction applying the given rules.
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHep,
}

func runHep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cliCtx.rules) > 0 {
		cfg.Hep = []InstructionConfig{{Rules: cliCtx.rules}}
	}
	program, err := cfg.Program()
	if err != nil {
		return err
	}
	e, err := readExpr(cmd, args, cfg)
	if err != nil {
		return err
	}

	p := hep.New(program)
	if cfg.Settings.MaxSteps > 0 {
		p.SetMaxSteps(cfg.Settings.MaxSteps)
	}
	reg := prometheus.NewRegistry()
	if cliCtx.showMetrics {
		m := hep.NewMetrics()
		if err := m.Register(reg); err != nil {
			return err
		}
		p.SetMetrics(m)
	}

	plan, err := p.ApplyProgram(cmd.Context(), e)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprint(w, memo.FormatExpr(plan, exprFormat()))
	return writeReport(w, p.RuleStats(), p.Steps(), p.BudgetExhausted(), reg)
}

// loadConfig returns the configuration of the config file, or the default
// one, overridden by the flags that were set.
func loadConfig() (Config, error) {
	cfg := DefaultConfig()
	if cliCtx.configPath != "" {
		var err error
		if cfg, err = LoadConfig(cliCtx.fs, cliCtx.configPath); err != nil {
			return Config{}, err
		}
	}
	if cliCtx.catalogPath != "" {
		cfg.Catalog = cliCtx.catalogPath
	}
	if cliCtx.required != "" {
		cfg.Required = cliCtx.required
	}
	if len(cliCtx.rules) > 0 {
		cfg.Rules = cliCtx.rules
	}
	if cliCtx.maxSteps > 0 {
		cfg.Settings.MaxSteps = cliCtx.maxSteps
	}
	return cfg, nil
}

// readExpr builds the expression held by the file named by args, or by
// standard input.
func readExpr(cmd *cobra.Command, args []string, cfg Config) (memo.RelExpr, error) {
	cat, err := cfg.NewCatalog(cliCtx.fs)
	if err != nil {
		return nil, err
	}
	var input []byte
	if len(args) == 0 || args[0] == "-" {
		input, err = io.ReadAll(cmd.InOrStdin())
	} else {
		input, err = afero.ReadFile(cliCtx.fs, args[0])
	}
	if err != nil {
		return nil, err
	}
	e, err := testexpr.Build(cat, string(input))
	if err != nil {
		return nil, errors.Wrap(err, "building expression")
	}
	return e, nil
}

func exprFormat() memo.ExprFmtFlags {
	f := memo.ExprFmtShowAll
	if cliCtx.hideTraits {
		f |= memo.ExprFmtHideTraits
	}
	if cliCtx.showRowType {
		f |= memo.ExprFmtShowRowType
	}
	return f
}

// writeReport prints the rule statistics and the metrics, if they were
// asked for.
func writeReport(
	w io.Writer, stats *rule.StatsCollector, steps int, budgetExhausted bool, g prometheus.Gatherer,
) error {
	if cliCtx.showStats {
		stats.WriteTable(w)
		fmt.Fprintf(w, "%d steps", steps)
		if budgetExhausted {
			fmt.Fprint(w, ", budget exhausted")
		}
		fmt.Fprintln(w)
	}
	if cliCtx.showMetrics {
		return writeMetrics(w, g)
	}
	return nil
}

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
	"github.com/kr/text"
	"github.com/spf13/pflag"
)

var flagUsage = map[string]string{
	"config": wrapText(`
Path of a YAML file holding the required convention, the rules, the
conversions, the optimizer settings and the heuristic program. Flags take
precedence over the values of the file.`),
	"catalog": wrapText(`
Path of a file of DDL statements declaring the tables the expression refers
to. Tables are written as:`) + `

  (table t (a INT NOT NULL) (b STRING) (rows 100))
  (flatfile f (a INT) (params (field_delimiter "|")))
`,
	"required": wrapText(`
The calling convention the plan must provide, for example ITERATOR or
ARRAY.`),
	"rules": wrapText(`
A comma-separated list of rule names. Only these rules are fired. The
default is every rule of the default rule set.`),
	"max-steps": wrapText(`
The maximum number of rule firings. When it is reached the best plan found
so far is returned.`),
	"show-row-type": wrapText(`
Append the row type to each line of the plan.`),
	"hide-traits": wrapText(`
Omit the traits from each line of the plan.`),
	"stats": wrapText(`
Print how often each rule was offered a binding, fired and declined.`),
	"metrics": wrapText(`
Print the metrics collected while planning, in the text form of the
Prometheus metric families.`),
	"dot": wrapText(`
Print the memo as a Graphviz graph after the plan. Each equivalence set is
a cluster of its subsets and members; the best member of each subset is
drawn bold.`),
	"verbosity": wrapText(`
Log verbosity. Level 1 logs set merges and extraction failures, level 2
every rule firing.`),
}

const wrapWidth = 79

func wrapText(s string) string {
	return text.Wrap(s, wrapWidth)
}

// usage returns the usage text of the named flag, indented to line up with
// the flag list of cobra's help output.
func usage(name string) string {
	s := flagUsage[name]
	if s[0] != '\n' {
		s = "\n" + s
	}
	if s[len(s)-1] != '\n' {
		s = s + "\n"
	}
	return text.Indent(s, "        ")
}

func initFlags(ctx *cliContext) {
	{
		pf := reloptCmd.PersistentFlags()
		pf.StringVar(&ctx.configPath, "config", ctx.configPath, usage("config"))
		pf.StringVar(&ctx.catalogPath, "catalog", ctx.catalogPath, usage("catalog"))
		pf.IntVarP(&ctx.verbosity, "verbosity", "v", ctx.verbosity, usage("verbosity"))
	}

	{
		f := optCmd.Flags()
		addPlanFlags(f, ctx)
		f.StringVar(&ctx.required, "required", ctx.required, usage("required"))
		f.BoolVar(&ctx.showDot, "dot", ctx.showDot, usage("dot"))
	}

	addPlanFlags(hepCmd.Flags(), ctx)
}

// addPlanFlags registers the flags shared by the planning commands.
func addPlanFlags(f *pflag.FlagSet, ctx *cliContext) {
	f.StringSliceVar(&ctx.rules, "rules", ctx.rules, usage("rules"))
	f.IntVar(&ctx.maxSteps, "max-steps", ctx.maxSteps, usage("max-steps"))
	f.BoolVar(&ctx.showRowType, "show-row-type", ctx.showRowType, usage("show-row-type"))
	f.BoolVar(&ctx.hideTraits, "hide-traits", ctx.hideTraits, usage("hide-traits"))
	f.BoolVar(&ctx.showStats, "stats", ctx.showStats, usage("stats"))
	f.BoolVar(&ctx.showMetrics, "metrics", ctx.showMetrics, usage("metrics"))
}

func init() {
	initCLIDefaults()
	initFlags(&cliCtx)
}

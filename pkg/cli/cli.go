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

// Package cli implements the relopt command: it reads a relational
// expression written as an s-expression, plans it with the cost-based or the
// heuristic optimizer, and prints the result.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/relopt/relopt/pkg/util/log"
	"github.com/spf13/cobra"
)

var reloptCmd = &cobra.Command{
	Use:   "relopt [command] (flags)",
	Short: "relational optimizer command-line interface",
	Long: `
Plans relational expressions with a cost-based or a heuristic optimizer.
`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetVerbosity(cliCtx.verbosity)
	},
}

func init() {
	cobra.EnableCommandSorting = false

	reloptCmd.AddCommand(
		optCmd,
		hepCmd,
	)
}

// Main is the entry point of the relopt binary.
func Main() {
	if err := Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Run executes the command line given by args.
func Run(args []string) error {
	reloptCmd.SetArgs(args)
	return reloptCmd.ExecuteContext(context.Background())
}

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

import "github.com/spf13/afero"

// cliContext holds the settings of one invocation. Flags write into it, and
// the config file fills in what the flags leave unset.
type cliContext struct {
	// configPath is the YAML file loaded before running a command.
	configPath string
	// catalogPath is a DDL file declaring the tables expressions refer to.
	// It is added to the catalog of the config file.
	catalogPath string
	// required overrides the convention the plan must provide.
	required string
	// rules overrides the rules of the config file.
	rules []string
	// maxSteps overrides the step budget when positive.
	maxSteps int
	// showRowType appends the row type to each line of the plan.
	showRowType bool
	// hideTraits omits the traits from each line of the plan.
	hideTraits bool
	// showStats prints the rule statistics after the plan.
	showStats bool
	// showMetrics prints the gathered metrics after the plan.
	showMetrics bool
	// showDot prints the memo as a Graphviz graph after the plan.
	showDot bool
	// verbosity is the logging verbosity.
	verbosity int

	// fs is the file system config, catalog and expression files are read
	// from.
	fs afero.Fs
}

var cliCtx = cliContext{}

// initCLIDefaults resets cliCtx. Tests call it between invocations because
// flag values persist in the package-level commands.
func initCLIDefaults() {
	cliCtx = cliContext{fs: afero.NewOsFs()}
}

/*
Copyright © 2022 - 2026 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"os"

	kcudferror "github.com/rancher/kcudf/pkg/error"
)

var rootCmd = NewRootCmd()

// Execute runs the translator CLI and maps any returned error to the
// process exit code via CLIExitCode.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		switch t := err.(type) {
		case *kcudferror.KCUDFError:
			os.Exit(kcudferror.CLIExitCode(t.ExitCode()))
		default:
			os.Exit(1)
		}
	}
}

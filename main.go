// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const sourceSuffix = ".compy"

var command = &cobra.Command{
	Use:  "compy source.compy [-o output]",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		srcPath := args[0]
		if !strings.HasSuffix(srcPath, sourceSuffix) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: source path must end in %s\n", sourceSuffix)
			os.Exit(1)
		}
		srcPrefix := strings.TrimSuffix(srcPath, sourceSuffix)

		output, _ := cmd.PersistentFlags().GetString("output")
		if output == "" {
			output = srcPrefix + ".out"
		}
		debugPipeline, _ := cmd.PersistentFlags().GetBool("debug-pipeline")
		debugAsm, _ := cmd.PersistentFlags().GetBool("debug-asm")
		debugObj, _ := cmd.PersistentFlags().GetBool("debug-obj")
		run, _ := cmd.PersistentFlags().GetBool("run")

		info := &CompilerInfo{
			SrcPath:   srcPath,
			SrcPrefix: srcPrefix,
			OutPath:   output,
			Debug: DebugFlags{
				Pipeline: debugPipeline,
				Asm:      debugAsm,
				Obj:      debugObj,
			},
			Run: run,
		}

		if err := Run(info); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	command.PersistentFlags().StringP("output", "o", "", "output path of the produced executable (defaults to the source prefix + .out)")
	command.PersistentFlags().Bool("debug-pipeline", false, "print the AST after each major pipeline stage")
	command.PersistentFlags().Bool("debug-asm", false, "write the generated assembly next to the source instead of a temp file")
	command.PersistentFlags().Bool("debug-obj", false, "write the assembled object file next to the source instead of a temp file")
	command.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "if set, echo the assembler and linker commands before running them")
	command.PersistentFlags().BoolP("run", "r", false, "exec the produced executable with no arguments after linking")
}

func main() {
	if err := command.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

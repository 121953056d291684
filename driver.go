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
	"os/exec"
	"path/filepath"
)

// runtimeObjectName is the pre-built runtime object linked into every
// produced executable.
const runtimeObjectName = "runtime.o"

// verbose: when set, every shelled-out command is echoed before it runs.
var verbose bool

// runCommand runs a command to completion and returns its combined
// output; on failure the captured output becomes the error text.
func runCommand(name string, arg ...string) (string, error) {
	if verbose {
		fmt.Fprintf(os.Stderr, "+ %v\n", append([]string{name}, arg...))
	}
	cmd := exec.Command(name, arg...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if len(output) > 0 {
			return "", fmt.Errorf("%s", output)
		}
		return "", err
	}
	return string(output), nil
}

// Assemble renders the emitted assembly lines, writes them to a NASM
// source file (the source prefix when the asm-debug flag is set,
// otherwise a scoped temp file), assembles it with nasm, and links the
// resulting object against the runtime object with gcc to produce
// info.OutPath.
func Assemble(info *CompilerInfo, lines []AsmLine) error {
	tmpdir, err := os.MkdirTemp("", "compy")
	if err != nil {
		return &UserError{Msg: "failed to create temporary build directory: " + err.Error()}
	}
	defer os.RemoveAll(tmpdir)

	prefix := func(debug bool) string {
		if debug {
			return info.SrcPrefix
		}
		return filepath.Join(tmpdir, "compy")
	}
	nasmFile := prefix(info.Debug.Asm) + ".nasm"
	objFile := prefix(info.Debug.Obj) + ".o"

	f, err := os.Create(nasmFile)
	if err != nil {
		return &UserError{Msg: "failed to write assembly output: " + err.Error()}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line.Assemble()); err != nil {
			f.Close()
			return &UserError{Msg: "failed to write assembly output: " + err.Error()}
		}
	}
	if err := f.Close(); err != nil {
		return &UserError{Msg: "failed to write assembly output: " + err.Error()}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "#### Running build commands...")
	}
	if out, err := runCommand("nasm", "-f", "elf64", "-o", objFile, nasmFile); err != nil {
		return &UserError{Msg: "nasm failed: " + err.Error() + "\n" + out}
	}
	runtimeObj := filepath.Join(runtimeDir(), runtimeObjectName)
	if out, err := runCommand("gcc", "-o", info.OutPath, objFile, runtimeObj); err != nil {
		return &UserError{Msg: "gcc failed: " + err.Error() + "\n" + out}
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "#### Build commands ran successfully...")
	}
	return nil
}

// runtimeDir locates the runtime/ directory shipped alongside the
// compiler binary.
func runtimeDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "runtime"
	}
	return filepath.Join(filepath.Dir(exe), "runtime")
}

// RunExecutable execs the produced binary in place with no arguments,
// for the -r/--run CLI flag.
func RunExecutable(outPath string) error {
	path := outPath
	if filepath.Dir(path) == "." {
		path = "./" + path
	}
	cmd := exec.Command(path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Package xcodebuild drives the Xcode command line tools: xcodebuild for
// archiving and merging, dsymutil for debug symbols.
package xcodebuild

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command is one external process invocation.
type Command struct {
	Dir  string
	Name string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes. A cancelled context kills
// the process.
type ExecRunner struct{}

// Run returns an error carrying the tail of the combined output when the
// process fails or exits non-zero.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", c.Name, err, tail(out, 20))
	}
	return nil
}

// tail returns the last n lines of out.
func tail(out []byte, n int) string {
	lines := bytes.Split(bytes.TrimRight(out, "\n"), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.Join(lines, []byte("\n")))
}

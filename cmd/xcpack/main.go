package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"

	"xcpack/internal/config"
	"xcpack/internal/workspace"
)

// CLI is the command grammar.
type CLI struct {
	Verbose bool   `help:"Log every assembly step." short:"v"`
	Dir     string `help:"Package root." short:"C" default:"." type:"existingdir"`

	Init     InitCmd     `cmd:"" help:"Create the .xcpack workspace and settings."`
	Generate GenerateCmd `cmd:"" help:"Generate the build project of the package."`
	Describe DescribeCmd `cmd:"" help:"Print the generated project as a tree."`
	Assemble AssembleCmd `cmd:"" help:"Archive a library for each variant and merge the archives."`
	Variants VariantsCmd `cmd:"" help:"List the known platform variants."`
	Clean    CleanCmd    `cmd:"" help:"Remove per-variant archives."`
}

// app is the state shared by every command.
type app struct {
	ctx     context.Context
	root    string
	stdout  io.Writer
	logger  *log.Logger
	verbose bool

	settings *config.Settings
}

// config resolves settings on first use, so init works on a package whose
// settings do not exist yet.
func (a *app) config() (*config.Settings, error) {
	if a.settings != nil {
		return a.settings, nil
	}
	s, err := config.Resolve(a.root)
	if err != nil {
		return nil, err
	}
	a.settings = s
	return s, nil
}

func (a *app) workspaceDir() (string, error) {
	s, err := a.config()
	if err != nil {
		return "", err
	}
	return workspace.Dir(a.root, s.Workspace), nil
}

func (a *app) workspace() (*workspace.Workspace, error) {
	dir, err := a.workspaceDir()
	if err != nil {
		return nil, err
	}
	return workspace.Open(dir)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

// run parses args and runs the selected command.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("xcpack"),
		kong.Description("xcpack - build projects and universal frameworks from packages"),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(cli.Dir)
	if err != nil {
		return err
	}
	return kctx.Run(&app{
		ctx:     ctx,
		root:    root,
		stdout:  stdout,
		logger:  log.New(stderr, "xcpack: ", 0),
		verbose: cli.Verbose,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

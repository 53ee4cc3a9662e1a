// Command complemake is a build driver for small, single-directory C++
// projects: it resolves a target graph from a project file, decides which
// targets are out of date, and drives a bounded pool of compiler/linker
// invocations to bring them up to date (§1, §6).
package main

import (
	"context"
	"fmt"
	"os"

	flags "github.com/thought-machine/go-flags"

	"github.com/complemake/complemake/internal/build"
	"github.com/complemake/complemake/internal/cli"
	"github.com/complemake/complemake/internal/core"
	"github.com/complemake/complemake/internal/job"
	"github.com/complemake/complemake/internal/metadata"
	"github.com/complemake/complemake/internal/platform"
	"github.com/complemake/complemake/internal/project"
)

const metadataFileName = ".comk-metadata"

func main() {
	var opts cli.Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = false
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cli.InitLogging(cli.ParseVerbosity(opts.Verbosity))

	var err error
	switch parser.Active.Name {
	case "build":
		err = runBuild(&opts, &opts.Build)
	case "clean":
		err = runClean(&opts, &opts.Clean)
	case "query":
		err = runQuery(&opts, &opts.Query)
	default:
		err = fmt.Errorf("no subcommand given")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadGraph(opts *cli.Opts) (*core.BuildGraph, error) {
	return project.Load(opts.Project)
}

func selectRoots(graph *core.BuildGraph, names []string) ([]*core.Target, error) {
	if len(names) == 0 {
		return graph.Targets(), nil
	}
	roots := make([]*core.Target, 0, len(names))
	for _, name := range names {
		t, ok := graph.TargetByName(name)
		if !ok {
			return nil, fmt.Errorf("no such target: %s", name)
		}
		roots = append(roots, t)
	}
	return roots, nil
}

func runBuild(opts *cli.Opts, cmd *cli.BuildCmd) error {
	graph, err := loadGraph(opts)
	if err != nil {
		return err
	}
	roots, err := selectRoots(graph, cmd.Targets)
	if err != nil {
		return err
	}

	parallelism := cmd.Jobs
	if parallelism <= 0 {
		parallelism = platform.DefaultParallelism()
	}

	meta := metadata.NewMetadataStore()
	meta.Load(metadataFileName)

	ctx := context.Background()
	runner := job.NewRunner(ctx, parallelism, cmd.KeepGoing)
	plat := platform.New(platform.HostKind())
	orchestrator := build.NewCore(graph, plat, meta, runner, cmd.DryRun)

	buildErr := orchestrator.Build(ctx, roots)
	if writeErr := meta.Write(metadataFileName); writeErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to persist metadata: %s\n", writeErr)
	}
	fmt.Println(runner.Summary(len(graph.Targets())))
	fmt.Println(orchestrator.TestLog.Summary())
	return buildErr
}

func runClean(opts *cli.Opts, cmd *cli.CleanCmd) error {
	graph, err := loadGraph(opts)
	if err != nil {
		return err
	}
	for _, t := range graph.Targets() {
		if !t.HasOutputPath() {
			continue
		}
		if err := os.Remove(t.OutputPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", t.OutputPath(), err)
		}
	}
	if cmd.All {
		if err := os.Remove(metadataFileName); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func runQuery(opts *cli.Opts, cmd *cli.QueryCmd) error {
	graph, err := loadGraph(opts)
	if err != nil {
		return err
	}
	if cmd.Deps == "" {
		for _, t := range graph.Targets() {
			if t.HasName() {
				fmt.Println(t.Name())
			}
		}
		return nil
	}
	t, ok := graph.TargetByName(cmd.Deps)
	if !ok {
		return fmt.Errorf("no such target: %s", cmd.Deps)
	}
	printDeps(t, map[*core.Target]bool{})
	return nil
}

func printDeps(t *core.Target, seen map[*core.Target]bool) {
	for _, dep := range t.TargetDependencies() {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		fmt.Println(dep.Ident())
		printDeps(dep, seen)
	}
}

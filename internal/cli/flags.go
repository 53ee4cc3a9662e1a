package cli

// Opts is the full set of command-line flags (§6). go-flags fills in the
// subcommand struct of the verb that was invoked; main dispatches on the
// parser's active command name.
type Opts struct {
	Verbosity string `short:"v" long:"verbosity" description:"Verbosity of output (error, warning, notice, info, debug)" default:"warning"`
	Project   string `short:"p" long:"project" description:"Path to the project file" default:"project.yaml"`

	Build BuildCmd `command:"build" description:"Build one or more targets"`
	Clean CleanCmd `command:"clean" description:"Remove build outputs (and, with --all, the metadata store)"`
	Query QueryCmd `command:"query" description:"Inspect the target graph without building"`
}

// BuildCmd implements "complemake build [targets...]".
type BuildCmd struct {
	Jobs      int      `short:"j" long:"jobs" description:"Maximum number of concurrent tool invocations. Default is the number of logical CPUs."`
	KeepGoing bool      `short:"k" long:"keep_going" description:"Continue building other targets after one fails."`
	DryRun    bool      `long:"dry_run" description:"Don't run any tools; report what would be built."`
	Targets   []string `positional-arg-name:"targets" description:"Targets to build. Defaults to every target in the project."`
}

// CleanCmd implements "complemake clean".
type CleanCmd struct {
	All bool `long:"all" description:"Also remove the incremental build metadata store."`
}

// QueryCmd implements "complemake query [--deps NAME]": without --deps it
// lists every named target.
type QueryCmd struct {
	Deps string `long:"deps" description:"Print the transitive dependency set of the named target."`
}

package tool

// machoLinker implements Backend for Darwin's ld64, invoked directly
// rather than through a compiler driver. Detection probes the `ld` found
// on $PATH (or the override) with `ld -v`, whose banner line looks like
// "@(#)PROGRAM:ld  PROJECT:ld64-1015.7", and takes the version from it.
// It does not resolve ld through `clang -print-prog-name=ld`, and does
// not check the "configured to support archs: ..." line.
type machoLinker struct{}

// NewMachOLinker returns the Darwin ld64 back-end.
func NewMachOLinker() Backend { return &machoLinker{} }

func (l *machoLinker) Name() string          { return "macho-ld" }
func (l *machoLinker) Boilerplate() []string { return nil }

func (l *machoLinker) Render(f Flag) []string {
	switch f.Kind {
	case FlagOutputPath:
		return []string{"-o", f.Path}
	case FlagDynlib:
		return []string{"-dylib"}
	case FlagLibDir:
		return []string{"-L" + f.Dir}
	case FlagLib:
		return []string{"-l" + f.Lib}
	default:
		return nil
	}
}

func (l *machoLinker) Parse(tokens []string) (Flag, int, bool) {
	if len(tokens) == 0 {
		return Flag{}, 0, false
	}
	head := tokens[0]
	switch {
	case head == "-o" && len(tokens) >= 2:
		return Flag{Kind: FlagOutputPath, Path: tokens[1]}, 2, true
	case head == "-dylib":
		return Flag{Kind: FlagDynlib}, 1, true
	case len(head) > 2 && head[:2] == "-L":
		return Flag{Kind: FlagLibDir, Dir: head[2:]}, 1, true
	case len(head) > 2 && head[:2] == "-l":
		return Flag{Kind: FlagLib, Lib: head[2:]}, 1, true
	}
	return Flag{}, 0, false
}

func (l *machoLinker) ProbeArgs() string  { return "-v" }
func (l *machoLinker) ProbeEnv() []string { return nil }

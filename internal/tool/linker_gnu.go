package tool

// gnuLinker implements Backend for a GNU-style linker invoked through its
// compiler driver (g++ or clang++ used purely as the link step), which is
// how both GCC and Clang normally drive ld on Linux.
type gnuLinker struct {
	name        string
	boilerplate []string
	probeArgs   string
}

// NewGccLinker returns the linker back-end for `g++` used as a link
// driver, identified the same way as the GCC compiler back-end.
func NewGccLinker() Backend {
	return &gnuLinker{name: "gcc-ld", boilerplate: nil, probeArgs: "--version"}
}

// NewClangLinker returns the linker back-end for `clang++` used as a
// link driver.
func NewClangLinker() Backend {
	return &gnuLinker{name: "clang-ld", boilerplate: nil, probeArgs: "-v"}
}

func (g *gnuLinker) Name() string          { return g.name }
func (g *gnuLinker) Boilerplate() []string { return g.boilerplate }

func (g *gnuLinker) Render(f Flag) []string {
	switch f.Kind {
	case FlagOutputPath:
		return []string{"-o", f.Path}
	case FlagDynlib:
		return []string{"-shared"}
	case FlagLibDir:
		return []string{"-L", f.Dir}
	case FlagLib:
		return []string{"-l" + f.Lib}
	default:
		return nil
	}
}

func (g *gnuLinker) Parse(tokens []string) (Flag, int, bool) {
	if len(tokens) == 0 {
		return Flag{}, 0, false
	}
	head := tokens[0]
	switch {
	case head == "-o" && len(tokens) >= 2:
		return Flag{Kind: FlagOutputPath, Path: tokens[1]}, 2, true
	case head == "-shared":
		return Flag{Kind: FlagDynlib}, 1, true
	case head == "-L" && len(tokens) >= 2:
		return Flag{Kind: FlagLibDir, Dir: tokens[1]}, 2, true
	case len(head) > 2 && head[:2] == "-L":
		return Flag{Kind: FlagLibDir, Dir: head[2:]}, 1, true
	case len(head) > 2 && head[:2] == "-l":
		return Flag{Kind: FlagLib, Lib: head[2:]}, 1, true
	}
	return Flag{}, 0, false
}

func (g *gnuLinker) ProbeArgs() string  { return g.probeArgs }
func (g *gnuLinker) ProbeEnv() []string { return []string{"LC_ALL=en_US.UTF-8"} }

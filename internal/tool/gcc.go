package tool

import "fmt"

// gnuCompiler implements Backend for GCC-family and Clang drivers invoked
// as a C++ compiler: the two share the entire abstract flag set and
// differ only in Name/boilerplate and in the probe used to identify them,
// which GccCompiler and ClangCompiler supply.
type gnuCompiler struct {
	name        string
	boilerplate []string
	probeArgs   string
}

func (g *gnuCompiler) Name() string          { return g.name }
func (g *gnuCompiler) Boilerplate() []string { return g.boilerplate }

func (g *gnuCompiler) Render(f Flag) []string {
	switch f.Kind {
	case FlagOutputPath:
		return []string{"-o", f.Path}
	case FlagPreprocessOnly:
		return []string{"-E"}
	case FlagDynlib:
		return []string{"-fPIC"}
	case FlagDefine:
		if f.Expansion == "" {
			return []string{"-D" + f.Name}
		}
		return []string{fmt.Sprintf("-D%s=%s", f.Name, f.Expansion)}
	case FlagIncludeDir:
		return []string{"-I", f.Dir}
	default:
		return nil
	}
}

func (g *gnuCompiler) Parse(tokens []string) (Flag, int, bool) {
	if len(tokens) == 0 {
		return Flag{}, 0, false
	}
	head := tokens[0]
	switch {
	case head == "-o" && len(tokens) >= 2:
		return Flag{Kind: FlagOutputPath, Path: tokens[1]}, 2, true
	case head == "-E":
		return Flag{Kind: FlagPreprocessOnly}, 1, true
	case head == "-fPIC":
		return Flag{Kind: FlagDynlib}, 1, true
	case head == "-I" && len(tokens) >= 2:
		return Flag{Kind: FlagIncludeDir, Dir: tokens[1]}, 2, true
	case len(head) > 2 && head[:2] == "-I":
		return Flag{Kind: FlagIncludeDir, Dir: head[2:]}, 1, true
	case len(head) > 2 && head[:2] == "-D":
		return parseDefine(head[2:]), 1, true
	}
	return Flag{}, 0, false
}

func parseDefine(body string) Flag {
	for i, c := range body {
		if c == '=' {
			return Flag{Kind: FlagDefine, Name: body[:i], Expansion: body[i+1:]}
		}
	}
	return Flag{Kind: FlagDefine, Name: body}
}

func (g *gnuCompiler) ProbeArgs() string  { return g.probeArgs }
func (g *gnuCompiler) ProbeEnv() []string { return []string{"LC_ALL=en_US.UTF-8"} }

// NewGccCompiler returns the GCC c++ compiler back-end, identified by
// `g++ --version` printing a line like "g++ (Ubuntu 11.4.0-1ubuntu1) 11.4.0",
// from which the version is taken. The supported system triplet is not
// probed.
func NewGccCompiler() Backend {
	return &gnuCompiler{name: "gcc", boilerplate: []string{"-std=c++17", "-c"}, probeArgs: "--version"}
}

// NewClangCompiler returns the Clang c++ compiler back-end. Clang accepts
// the same GCC-style flag syntax, but is identified separately (`clang++
// -v` prints "clang version ..." and a "Target: <triplet>" line) and
// takes its cross-compilation target via -target rather than a
// triplet-specific executable name.
func NewClangCompiler() Backend {
	return &gnuCompiler{name: "clang", boilerplate: []string{"-std=c++17", "-c"}, probeArgs: "-v"}
}

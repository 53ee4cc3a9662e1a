package tool

import "fmt"

// mscCompiler implements Backend for the Microsoft C/C++ Optimizing
// Compiler (cl.exe), whose flag syntax is slash-prefixed and whose output
// path flag is fused to the path with no separating space.
type mscCompiler struct{}

// NewMscCompiler returns the MSC compiler back-end, identified by
// `cl /?` printing "Microsoft (R) C/C++ Optimizing Compiler Version
// <ver> for <arch>".
func NewMscCompiler() Backend { return &mscCompiler{} }

func (m *mscCompiler) Name() string          { return "msc" }
func (m *mscCompiler) Boilerplate() []string { return []string{"/nologo", "/EHsc", "/std:c++17"} }

func (m *mscCompiler) Render(f Flag) []string {
	switch f.Kind {
	case FlagOutputPath:
		return []string{"/Fo" + f.Path}
	case FlagPreprocessOnly:
		return []string{"/P"}
	case FlagDynlib:
		return []string{"/LD"}
	case FlagDefine:
		if f.Expansion == "" {
			return []string{"/D" + f.Name}
		}
		return []string{fmt.Sprintf("/D%s=%s", f.Name, f.Expansion)}
	case FlagIncludeDir:
		return []string{"/I" + f.Dir}
	default:
		return nil
	}
}

func (m *mscCompiler) Parse(tokens []string) (Flag, int, bool) {
	if len(tokens) == 0 {
		return Flag{}, 0, false
	}
	head := tokens[0]
	switch {
	case len(head) > 3 && head[:3] == "/Fo":
		return Flag{Kind: FlagOutputPath, Path: head[3:]}, 1, true
	case head == "/P":
		return Flag{Kind: FlagPreprocessOnly}, 1, true
	case head == "/LD":
		return Flag{Kind: FlagDynlib}, 1, true
	case len(head) > 2 && head[:2] == "/I":
		return Flag{Kind: FlagIncludeDir, Dir: head[2:]}, 1, true
	case len(head) > 2 && head[:2] == "/D":
		return parseDefine(head[2:]), 1, true
	}
	return Flag{}, 0, false
}

func (m *mscCompiler) ProbeArgs() string  { return "/?" }
func (m *mscCompiler) ProbeEnv() []string { return nil }

package tool

// mscLinker implements Backend for the Microsoft Incremental Linker
// (link.exe), identified by `link /?` printing a banner beginning
// "Microsoft (R) Incremental Linker Version <ver>".
type mscLinker struct{}

// NewMscLinker returns the MS link.exe back-end.
func NewMscLinker() Backend { return &mscLinker{} }

func (l *mscLinker) Name() string          { return "msc-ld" }
func (l *mscLinker) Boilerplate() []string { return []string{"/NOLOGO"} }

func (l *mscLinker) Render(f Flag) []string {
	switch f.Kind {
	case FlagOutputPath:
		return []string{"/OUT:" + f.Path}
	case FlagDynlib:
		return []string{"/DLL"}
	case FlagLibDir:
		return []string{"/LIBPATH:" + f.Dir}
	case FlagLib:
		return []string{f.Lib + ".lib"}
	default:
		return nil
	}
}

func (l *mscLinker) Parse(tokens []string) (Flag, int, bool) {
	if len(tokens) == 0 {
		return Flag{}, 0, false
	}
	head := tokens[0]
	switch {
	case len(head) > 5 && head[:5] == "/OUT:":
		return Flag{Kind: FlagOutputPath, Path: head[5:]}, 1, true
	case head == "/DLL":
		return Flag{Kind: FlagDynlib}, 1, true
	case len(head) > 9 && head[:9] == "/LIBPATH:":
		return Flag{Kind: FlagLibDir, Dir: head[9:]}, 1, true
	case len(head) > 4 && head[len(head)-4:] == ".lib" && head[0] != '/':
		return Flag{Kind: FlagLib, Lib: head[:len(head)-4]}, 1, true
	}
	return Flag{}, 0, false
}

func (l *mscLinker) ProbeArgs() string  { return "" }
func (l *mscLinker) ProbeEnv() []string { return nil }

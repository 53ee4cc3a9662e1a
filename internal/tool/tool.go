package tool

import (
	"github.com/Masterminds/semver/v3"
	"github.com/alessio/shellescape"
)

// Tool is one configured compiler or linker: a back-end bound to a
// concrete executable, plus the ordered abstract-flag state a build step
// fills in before asking for a command line (§4.2).
type Tool struct {
	Backend Backend
	Role    Role
	Exe     string
	Version *semver.Version

	// ExtraArgs are the factory arguments recorded at detection time: eg.
	// a cross-compiler's "--target=<triplet>", and for GCC/Clang
	// compilers the version-gated warning-flag boilerplate Detect
	// appends (see compilerWarningArgs). They are replayed on every
	// invocation, immediately after the boilerplate.
	ExtraArgs []string

	// PreprocessOnly and Dynlib are the two boolean-shaped abstract flags;
	// each is either absent or present exactly once, so they are plain
	// bools rather than a slice.
	PreprocessOnly bool
	Dynlib         bool

	Defines     []Define
	IncludeDirs []string

	// EnvOverride holds additional tokens injected from CXXFLAGS/LDFLAGS
	// style environment variables (§4.4), already split with shell-style
	// word splitting.
	EnvOverride []string

	Output string
	Inputs []string

	// LibDirs and Libs are meaningful only for Role == RoleLinker.
	LibDirs []string
	Libs    []string
}

// NewCompilerTool constructs a Tool in the compiler role.
func NewCompilerTool(backend Backend, exe string, version *semver.Version, extraArgs []string) *Tool {
	return &Tool{Backend: backend, Role: RoleCompiler, Exe: exe, Version: version, ExtraArgs: extraArgs}
}

// NewLinkerTool constructs a Tool in the linker role.
func NewLinkerTool(backend Backend, exe string, version *semver.Version, extraArgs []string) *Tool {
	return &Tool{Backend: backend, Role: RoleLinker, Exe: exe, Version: version, ExtraArgs: extraArgs}
}

// AddDefine appends a macro definition, preserving declaration order.
func (t *Tool) AddDefine(name, expansion string) {
	t.Defines = append(t.Defines, Define{Name: name, Expansion: expansion})
}

// AddIncludeDir appends a compiler include search path.
func (t *Tool) AddIncludeDir(dir string) {
	t.IncludeDirs = append(t.IncludeDirs, dir)
}

// AddLibDir appends a linker library search path. Only meaningful when
// Role is RoleLinker.
func (t *Tool) AddLibDir(dir string) {
	t.LibDirs = append(t.LibDirs, dir)
}

// AddLib appends a library to link against, in link order. Only
// meaningful when Role is RoleLinker.
func (t *Tool) AddLib(lib string) {
	t.Libs = append(t.Libs, lib)
}

// CommandLine assembles the full argv for this tool invocation, in the
// fixed order mandated by §4.2: executable, back-end boilerplate, factory
// arguments, boolean abstract flags, macros, include dirs, environment
// overrides, output path, inputs, and finally (linkers only) library
// search paths and libraries.
func (t *Tool) CommandLine() []string {
	argv := []string{t.Exe}
	argv = append(argv, t.Backend.Boilerplate()...)
	argv = append(argv, t.ExtraArgs...)

	if t.PreprocessOnly {
		argv = append(argv, t.Backend.Render(Flag{Kind: FlagPreprocessOnly})...)
	}
	if t.Dynlib {
		argv = append(argv, t.Backend.Render(Flag{Kind: FlagDynlib})...)
	}
	for _, d := range t.Defines {
		argv = append(argv, t.Backend.Render(Flag{Kind: FlagDefine, Name: d.Name, Expansion: d.Expansion})...)
	}
	for _, dir := range t.IncludeDirs {
		argv = append(argv, t.Backend.Render(Flag{Kind: FlagIncludeDir, Dir: dir})...)
	}
	argv = append(argv, t.EnvOverride...)

	if t.Output != "" {
		argv = append(argv, t.Backend.Render(Flag{Kind: FlagOutputPath, Path: t.Output})...)
	}
	argv = append(argv, t.Inputs...)

	if t.Role == RoleLinker {
		for _, dir := range t.LibDirs {
			argv = append(argv, t.Backend.Render(Flag{Kind: FlagLibDir, Dir: dir})...)
		}
		for _, lib := range t.Libs {
			argv = append(argv, t.Backend.Render(Flag{Kind: FlagLib, Lib: lib})...)
		}
	}
	return argv
}

// String renders the command line the way it would be logged (§5),
// shell-quoting any token that needs it.
func (t *Tool) String() string {
	return shellescape.QuoteCommand(t.CommandLine())
}

// Package core implements the target graph and dependency resolver: the
// entity model described by the project file, the invariants that must
// hold over it, and the per-target build-lifecycle state machine.
package core

import "fmt"

// A Dependency is anything a Target may depend on. Most variants are
// "foreign": they identify something the project does not itself build.
// The Target variant is the only one that the project builds.
type Dependency interface {
	// Ident returns the name or path that identifies this dependency, for
	// error messages and logging.
	Ident() string
	// AsTarget returns the underlying Target and true if this dependency
	// is a Target (ie. something this project builds), or (nil, false)
	// otherwise.
	AsTarget() (*Target, bool)
}

// ForeignSource is a source file that is not built by this project, eg. a
// pregenerated .cpp file checked into the tree.
type ForeignSource struct {
	Path string
}

func (f *ForeignSource) Ident() string              { return f.Path }
func (f *ForeignSource) AsTarget() (*Target, bool)   { return nil, false }
func (f *ForeignSource) String() string              { return f.Path }

// ForeignLib is a library provided by the system (or toolchain) rather
// than built by this project, eg. "pthread".
type ForeignLib struct {
	Name string
}

func (f *ForeignLib) Ident() string            { return f.Name }
func (f *ForeignLib) AsTarget() (*Target, bool) { return nil, false }
func (f *ForeignLib) String() string            { return f.Name }

// OutputReference is a file compared against a test's output, eg. the
// "expected output" attribute of a tooltest or exetest.
type OutputReference struct {
	Path string
}

func (o *OutputReference) Ident() string            { return o.Path }
func (o *OutputReference) AsTarget() (*Target, bool) { return nil, false }
func (o *OutputReference) String() string            { return o.Path }

// TestExecScript is a driver script used as argv[0] for an executable test.
type TestExecScript struct {
	Path string
}

func (t *TestExecScript) Ident() string            { return t.Path }
func (t *TestExecScript) AsTarget() (*Target, bool) { return nil, false }
func (t *TestExecScript) String() string            { return t.Path }

// UndeterminedLib is a placeholder created at parse time for a library
// entry whose kind (project target vs. foreign lib) isn't yet known.
// Resolve turns it into either a Target or a ForeignLib; the project
// loader substitutes that result into Dependencies before validation, so
// a loaded graph holds no placeholders.
type UndeterminedLib struct {
	Name string
}

func (u *UndeterminedLib) Ident() string            { return u.Name }
func (u *UndeterminedLib) AsTarget() (*Target, bool) { return nil, false }
func (u *UndeterminedLib) String() string            { return u.Name }

// Resolve turns an UndeterminedLib into a concrete Dependency once the
// graph knows whether "name" refers to a project target or not.
func (u *UndeterminedLib) Resolve(g *BuildGraph) Dependency {
	if t, ok := g.TargetByName(u.Name); ok {
		return t
	}
	return &ForeignLib{Name: u.Name}
}

var (
	_ Dependency = (*ForeignSource)(nil)
	_ Dependency = (*ForeignLib)(nil)
	_ Dependency = (*OutputReference)(nil)
	_ Dependency = (*TestExecScript)(nil)
	_ Dependency = (*UndeterminedLib)(nil)
	_ Dependency = (*Target)(nil)
)

// DependencyError describes a dependency that can't be resolved, eg. an
// unknown target name or path. BuildGraph.Validate does not return it: a
// library name that matches no target resolves to a ForeignLib.
type DependencyError struct {
	From    string
	Wanted  string
	Message string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: cannot resolve dependency %q: %s", e.From, e.Wanted, e.Message)
}

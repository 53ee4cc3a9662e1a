package core

// TargetKind tags the concrete variant of a Target. Modelled as a tagged
// variant (see DESIGN.md) rather than the deep inheritance hierarchy of
// the system this is derived from: a flat Kind plus a per-kind Payload
// interface stands in for Dependency -> Target -> FileTarget ->
// ProcessedSourceTarget -> CxxObjectTarget.
type TargetKind int

const (
	KindCxxPreprocessed TargetKind = iota
	KindCxxObject
	KindExecutable
	KindDynLib
	KindToolTest
	KindExecutableTest
)

func (k TargetKind) String() string {
	switch k {
	case KindCxxPreprocessed:
		return "cxx_preprocessed"
	case KindCxxObject:
		return "cxx_object"
	case KindExecutable:
		return "executable"
	case KindDynLib:
		return "dynlib"
	case KindToolTest:
		return "tooltest"
	case KindExecutableTest:
		return "exetest"
	default:
		return "unknown"
	}
}

// TargetPayload carries the fields specific to one TargetKind. Each
// concrete payload type below implements it only to tag itself; callers
// type-switch on the concrete type (or on Target.Kind) to dispatch
// kind-specific behaviour, which lives in internal/build rather than here
// so that this package stays free of any dependency on internal/tool or
// internal/job.
type TargetPayload interface {
	Kind() TargetKind
}

// CxxPreprocessedPayload is the payload of a CxxPreprocessedTarget: a
// single source file run through the preprocessor only, suffix ".i".
type CxxPreprocessedPayload struct {
	SourcePath string
	// FinalOutput is the target (executable, dynlib, or test) that this
	// preprocessed file ultimately feeds; a dynlib final output makes the
	// compile step emit position-independent code and its build macro.
	FinalOutput *Target
}

func (*CxxPreprocessedPayload) Kind() TargetKind { return KindCxxPreprocessed }

// CxxObjectPayload is the payload of a CxxObjectTarget: a compiled object
// file with a platform-defined suffix (.o / .obj).
type CxxObjectPayload struct {
	SourcePath  string
	FinalOutput *Target
}

func (*CxxObjectPayload) Kind() TargetKind { return KindCxxObject }

// ExecutablePayload is the payload of an ExecutableTarget.
type ExecutablePayload struct{}

func (*ExecutablePayload) Kind() TargetKind { return KindExecutable }

// DynLibPayload is the payload of a DynLibTarget: compiled with
// position-independent code and a build-side macro define.
type DynLibPayload struct {
	// BuildMacro is the preprocessor macro defined for this library's own
	// sources only, eg. COMPLEMAKE_BUILD_GREET.
	BuildMacro string
}

func (*DynLibPayload) Kind() TargetKind { return KindDynLib }

// ToolTestPayload is the payload of a ToolTestTarget: an in-process
// byte-stream comparison of exactly two static operands.
type ToolTestPayload struct {
	Operands   [2]Dependency
	Transforms []Transform
}

func (*ToolTestPayload) Kind() TargetKind { return KindToolTest }

// ExecutableTestPayload is the payload of an ExecutableTestTarget: builds
// as a binary under bin/test/ and then runs it.
type ExecutableTestPayload struct {
	// ExpectedOutput, if non-nil, is compared against the executed
	// program's captured stdout (after transforms).
	ExpectedOutput *OutputReference
	Transforms     []Transform
	// UsesAbacladeTesting is true if "abaclade-testing" is among this
	// target's linked libraries, selecting the AbacladeTest job variant.
	UsesAbacladeTesting bool
}

func (*ExecutableTestPayload) Kind() TargetKind { return KindExecutableTest }

// depInfo wraps one declared dependency.
type depInfo struct {
	dep Dependency
}

// Target is a Dependency that is produced: an entity with a well-defined
// output, tracked through the build lifecycle of §4.4.
type Target struct {
	// name is empty if this target has no name (eg. an intermediate
	// object or preprocessed file).
	name string
	// outputPath is empty if this target produces no file of its own, as
	// for a ToolTestTarget; HasOutputPath reports which case applies.
	outputPath string

	// Dependencies lists this target's declared dependencies, in
	// declaration order. Order matters: it determines linker input order
	// (§8 property 5).
	Dependencies []Dependency

	Kind    TargetKind
	Payload TargetPayload

	// blockingDependencies counts dependency Targets not yet up to date
	// while this target is WaitingDeps. Mutated only by the orchestrator
	// thread (§5); no lock is needed.
	blockingDependencies int
	// blockedDependents are targets waiting on this one. Plain pointers
	// suffice here: Go's garbage collector reclaims reference cycles,
	// so (unlike the arena-owned, manually-memory-managed system this is
	// derived from) there is no need for weak references to break the
	// dependency<->dependent cycle.
	blockedDependents []*Target

	building  bool
	upToDate  bool
	state     TargetState
	buildOnce bool // true once start_build's "mark as building" has run; enforces invariant 5.

	// released is true once blockedDependents has been drained (invariant 7).
	released bool
}

// NewTarget constructs a Target of the given kind. name and outputPath may
// both be empty only for intermediate targets that are reachable solely
// via another target's Dependencies (the graph still requires every file
// target to have a unique outputPath; see BuildGraph.AddTarget).
func NewTarget(kind TargetKind, name, outputPath string, payload TargetPayload, deps ...Dependency) *Target {
	return &Target{
		name:         name,
		outputPath:   outputPath,
		Dependencies: deps,
		Kind:         kind,
		Payload:      payload,
		state:        Fresh,
	}
}

func (t *Target) Ident() string {
	if t.name != "" {
		return t.name
	}
	return t.outputPath
}

func (t *Target) AsTarget() (*Target, bool) { return t, true }

func (t *Target) String() string { return t.Ident() }

// Name returns the target's name, or "" if it is unnamed.
func (t *Target) Name() string { return t.name }

// HasName reports whether this target has a unique name.
func (t *Target) HasName() bool { return t.name != "" }

// OutputPath returns the target's own output file path, or "" if it
// produces no file of its own.
func (t *Target) OutputPath() string { return t.outputPath }

// HasOutputPath reports whether this target produces a file of its own.
func (t *Target) HasOutputPath() bool { return t.outputPath != "" }

// State returns the target's current lifecycle state.
func (t *Target) State() TargetState { return t.state }

// UpToDate reports whether this target has finished building successfully.
func (t *Target) UpToDate() bool { return t.upToDate }

// Building reports whether this target has started (and not yet
// finished) its build.
func (t *Target) Building() bool { return t.building }

// TargetDependencies returns the subset of Dependencies that are
// themselves Targets, in declaration order.
func (t *Target) TargetDependencies() []*Target {
	var out []*Target
	for _, d := range t.Dependencies {
		if dt, ok := d.AsTarget(); ok {
			out = append(out, dt)
		}
	}
	return out
}

// OwnOutputPaths returns every file this target itself generates. For
// every kind defined by this package that is exactly the single
// OutputPath, except CxxPreprocessedTarget and CxxObjectTarget, whose
// OutputPath is also their sole output; ToolTestTarget produces no file.
func (t *Target) OwnOutputPaths() []string {
	if t.Kind == KindToolTest {
		return nil
	}
	if t.HasOutputPath() {
		return []string{t.outputPath}
	}
	return nil
}

// DependencyOutputPaths returns every file generated by every direct
// dependency target, ie. this target's declared "inputs" for §4.1's
// snapshot purposes.
func (t *Target) DependencyOutputPaths() []string {
	var out []string
	for _, dep := range t.TargetDependencies() {
		out = append(out, dep.OwnOutputPaths()...)
	}
	return out
}

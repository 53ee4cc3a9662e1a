package tool

// Backend renders abstract flags into the concrete argv tokens a specific
// compiler or linker executable understands, and is able to parse them
// back (used by detection and by the round-trip property in §8: every
// abstract flag a back-end claims to support must survive a
// render-then-parse round trip unchanged).
type Backend interface {
	// Name identifies the back-end in log lines and error messages.
	Name() string

	// Boilerplate returns argv tokens emitted unconditionally, before any
	// abstract flag, eg. "-std=c++17" for a compiler or nothing for most
	// linkers.
	Boilerplate() []string

	// Render turns one abstract flag into zero or more argv tokens. It
	// returns nil if this back-end doesn't support f.Kind; callers only
	// ever ask for kinds appropriate to the back-end's role (compiler vs
	// linker), so a nil result indicates a programming error upstream.
	Render(f Flag) []string

	// Parse is Render's inverse: given the argv tokens starting at
	// position 0 of tokens, it reports the Flag they encode, how many
	// tokens were consumed, and whether tokens[0:] matched one of this
	// back-end's renderings at all.
	Parse(tokens []string) (f Flag, consumed int, ok bool)

	// ProbeArgs returns the argv (after the executable itself) used to
	// make the tool print identifying output during detection.
	ProbeArgs() string

	// ProbeEnv returns extra environment variables (eg. LC_ALL) the probe
	// invocation should run with, so its output is in a locale-independent
	// format.
	ProbeEnv() []string
}

// Role distinguishes a compiler back-end from a linker back-end; a Tool is
// built for one role and only ever carries flags of the matching kinds.
type Role int

const (
	RoleCompiler Role = iota
	RoleLinker
)

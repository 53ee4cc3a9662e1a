package platform

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/complemake/complemake/internal/tool"
)

// HostKind returns the Kind of the machine this process is running on,
// for the common case of a non-cross build where the project file gives
// no target system type (§4.3).
func HostKind() Kind {
	switch runtime.GOOS {
	case "darwin":
		return Darwin
	case "freebsd":
		return FreeBSD
	case "windows":
		if strings.Contains(runtime.GOARCH, "64") {
			return Win64
		}
		return Win32
	default:
		return GNU
	}
}

// Platform bundles the per-OS conventions a build needs beyond what a
// Tool back-end itself knows: output file naming, dynamic-library search
// path environment variables, script invocation quirks, and the link
// inputs every binary on that platform needs regardless of what the
// project file asked for (§4.3).
type Platform struct {
	kind Kind

	compilerCache *tool.Cache
	linkerCache   *tool.Cache
}

// New returns the Platform for the given detected kind.
func New(kind Kind) *Platform {
	return &Platform{kind: kind, compilerCache: tool.NewCache(), linkerCache: tool.NewCache()}
}

// Kind returns this platform's detected Kind.
func (p *Platform) Kind() Kind { return p.kind }

// IsCrossBuild reports whether this platform differs from the one the
// build driver itself is running on. An ExecutableTestTarget built for a
// cross build's platform generally can't be exec'd here at all; §7
// downgrades that spawn failure from fatal to a skip precisely when this
// is true.
func (p *Platform) IsCrossBuild() bool { return p.kind != HostKind() }

// DynlibFileName returns the conventional file name for a dynamic library
// called name on this platform (eg. "foo" -> "libfoo.so", "libfoo.dylib",
// "foo.dll").
func (p *Platform) DynlibFileName(name string) string {
	switch p.kind {
	case Darwin:
		return "lib" + name + ".dylib"
	case Win32, Win64:
		return name + ".dll"
	default:
		return "lib" + name + ".so"
	}
}

// ExeFileName returns the conventional file name for an executable called
// name on this platform.
func (p *Platform) ExeFileName(name string) string {
	switch p.kind {
	case Win32, Win64:
		return name + ".exe"
	default:
		return name
	}
}

// DynlibsNeedImplibs reports whether linking against a dynamic library on
// this platform requires a separate import library rather than the
// shared object itself (true on Windows).
func (p *Platform) DynlibsNeedImplibs() bool {
	return p.kind == Win32 || p.kind == Win64
}

// AddDirToDynlibEnvPath prepends dir to whichever environment variable
// this platform's dynamic loader consults, creating the entry if env
// doesn't already define it. env is a "KEY=VALUE" slice as accepted by
// os/exec.Cmd.Env.
func (p *Platform) AddDirToDynlibEnvPath(env []string, dir string) []string {
	name, sep := p.dynlibEnvVar()
	for i, kv := range env {
		if strings.HasPrefix(kv, name+"=") {
			existing := strings.TrimPrefix(kv, name+"=")
			if existing == "" {
				env[i] = name + "=" + dir
			} else {
				env[i] = name + "=" + dir + sep + existing
			}
			return env
		}
	}
	return append(env, name+"="+dir)
}

func (p *Platform) dynlibEnvVar() (name, sep string) {
	switch p.kind {
	case Darwin:
		return "DYLD_LIBRARY_PATH", ":"
	case Win32, Win64:
		return "PATH", ";"
	default:
		return "LD_LIBRARY_PATH", ":"
	}
}

// AdjustPopenArgsForScript rewrites an argv for a test-execution script so
// it can be exec'd directly. On Windows, a script that isn't itself a
// .exe or .com needs an interpreter prefix (cmd /c) since CreateProcess
// can't run it directly; elsewhere argv is returned unchanged.
func (p *Platform) AdjustPopenArgsForScript(args []string) []string {
	if p.kind != Win32 && p.kind != Win64 {
		return args
	}
	if len(args) == 0 {
		return args
	}
	lower := strings.ToLower(args[0])
	if strings.HasSuffix(lower, ".exe") || strings.HasSuffix(lower, ".com") {
		return args
	}
	return append([]string{"cmd", "/c"}, args...)
}

// ConfigureTool injects the link inputs this platform mandates on every
// binary regardless of what the project file declared, eg. libdl and
// libpthread on GNU, or the baseline Win32 API import libraries on
// Windows (§4.3).
func (p *Platform) ConfigureTool(t *tool.Tool) {
	if t.Role != tool.RoleLinker {
		return
	}
	switch p.kind {
	case GNU:
		t.AddLib("dl")
		t.AddLib("pthread")
	case FreeBSD:
		t.AddLib("pthread")
	case Win32, Win64:
		for _, lib := range []string{"kernel32", "ws2_32", "user32", "advapi32", "mswsock"} {
			t.AddLib(lib)
		}
	case Darwin:
		// libSystem already provides pthread and dl equivalents; no
		// extra libs to inject.
	}
}

// GetCompiler returns the cached c++ compiler Tool for this platform's
// default back-end (or override, if non-empty), detecting it on first
// use. extraArgs are recorded on the Tool and replayed on every
// invocation (eg. a cross-compile --target flag).
func (p *Platform) GetCompiler(override string, extraArgs []string) (*tool.Tool, error) {
	kind, err := p.compilerKind()
	if err != nil {
		return nil, err
	}
	t, err := p.compilerCache.Get(kind, override, extraArgs)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetLinker returns the cached linker Tool for this platform's default
// back-end (or override), detecting it on first use.
func (p *Platform) GetLinker(override string, extraArgs []string) (*tool.Tool, error) {
	kind, err := p.linkerKind()
	if err != nil {
		return nil, err
	}
	t, err := p.linkerCache.Get(kind, override, extraArgs)
	if err != nil {
		return nil, err
	}
	p.ConfigureTool(t)
	return t, nil
}

func (p *Platform) compilerKind() (tool.Kind, error) {
	switch p.kind {
	case Win32, Win64:
		return tool.KindCxxCompilerMSC, nil
	case Darwin:
		return tool.KindCxxCompilerClang, nil
	case GNU, FreeBSD:
		return tool.KindCxxCompilerGCC, nil
	default:
		return 0, fmt.Errorf("platform: no default compiler for kind %v", p.kind)
	}
}

func (p *Platform) linkerKind() (tool.Kind, error) {
	switch p.kind {
	case Win32, Win64:
		return tool.KindLinkerMSC, nil
	case Darwin:
		return tool.KindLinkerMachO, nil
	case GNU, FreeBSD:
		return tool.KindLinkerGCC, nil
	default:
		return 0, fmt.Errorf("platform: no default linker for kind %v", p.kind)
	}
}

// DefaultParallelism returns the worker-pool size to use when the project
// file and command line both leave it unset: the number of logical CPUs
// as reported by the OS, falling back to 1 if that can't be determined.
func DefaultParallelism() int {
	counts, err := cpu.Counts(true)
	if err != nil || counts < 1 {
		return 1
	}
	return counts
}

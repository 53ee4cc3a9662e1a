package tool

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("tool")

// Kind identifies which role + family of tool a Factory detects.
type Kind int

const (
	KindCxxCompilerGCC Kind = iota
	KindCxxCompilerClang
	KindCxxCompilerMSC
	KindLinkerGCC
	KindLinkerClang
	KindLinkerMachO
	KindLinkerMSC
)

// candidate pairs a default executable name with the backend and version
// regex used to confirm it really is that tool (§4.2 detection protocol:
// try default names, run a probe, parse the output, give up cleanly if it
// doesn't match).
type candidate struct {
	exe        string
	backend    Backend
	versionRe  *regexp.Regexp
	role       Role
}

var candidates = map[Kind]candidate{
	KindCxxCompilerGCC:   {exe: "g++", backend: NewGccCompiler(), versionRe: regexp.MustCompile(`\bg\+\+.*?(\d+\.\d+(?:\.\d+)?)`), role: RoleCompiler},
	KindCxxCompilerClang: {exe: "clang++", backend: NewClangCompiler(), versionRe: regexp.MustCompile(`clang version (\d+\.\d+(?:\.\d+)?)`), role: RoleCompiler},
	KindCxxCompilerMSC:   {exe: "cl", backend: NewMscCompiler(), versionRe: regexp.MustCompile(`Compiler Version (\d+\.\d+(?:\.\d+)?)`), role: RoleCompiler},
	KindLinkerGCC:        {exe: "g++", backend: NewGccLinker(), versionRe: regexp.MustCompile(`\bg\+\+.*?(\d+\.\d+(?:\.\d+)?)`), role: RoleLinker},
	KindLinkerClang:      {exe: "clang++", backend: NewClangLinker(), versionRe: regexp.MustCompile(`clang version (\d+\.\d+(?:\.\d+)?)`), role: RoleLinker},
	KindLinkerMachO:      {exe: "ld", backend: NewMachOLinker(), versionRe: regexp.MustCompile(`PROJECT:ld64-(\d+(?:\.\d+)?)`), role: RoleLinker},
	KindLinkerMSC:        {exe: "link", backend: NewMscLinker(), versionRe: regexp.MustCompile(`Linker Version (\d+\.\d+(?:\.\d+)?)`), role: RoleLinker},
}

// probeTimeout bounds how long detection waits for a candidate executable
// to respond; an unresponsive "g++" on $PATH must not hang the build.
const probeTimeout = 5 * time.Second

// gccColorDiagnosticsMinVersion is the GCC release that gained
// -fdiagnostics-color; below it the flag is simply unrecognized.
var gccColorDiagnosticsMinVersion = semver.MustParse("4.9.0")

// compilerWarningArgs returns the warning-flag and diagnostics-coloring
// boilerplate a GCC/Clang compiler is always invoked with, version-gating
// the bits GCC doesn't support unconditionally. Recorded once at
// detection time and replayed on every invocation via Tool.ExtraArgs,
// rather than baked into Backend.Boilerplate, so the two families can
// diverge (GCC also gets -Wlogical-op, which Clang lacks) without
// widening the Backend interface.
func compilerWarningArgs(kind Kind, version *semver.Version) []string {
	common := []string{
		"-Wall", "-Wextra", "-pedantic", "-Wconversion",
		"-Wmissing-declarations", "-Wpacked", "-Wshadow",
		"-Wsign-conversion", "-Wundef",
	}
	switch kind {
	case KindCxxCompilerGCC:
		args := []string{"-pipe", "-fnon-call-exceptions", "-fvisibility=hidden"}
		if version != nil && !version.LessThan(gccColorDiagnosticsMinVersion) {
			args = append(args, "-fdiagnostics-color=always")
		}
		args = append(args, common...)
		return append(args, "-Wlogical-op")
	case KindCxxCompilerClang:
		args := []string{"-fvisibility=hidden", "-fdiagnostics-color=always"}
		return append(args, common...)
	default:
		return nil
	}
}

// Detect runs kind's candidate executable (or override, if non-empty) and
// confirms it is the tool it claims to be by matching its probe output
// against the expected version pattern. extraArgs (eg. "--target=<triplet>"
// for a cross build) are recorded on the returned Tool and replayed on
// every subsequent invocation.
func Detect(kind Kind, override string, extraArgs []string) (*Tool, error) {
	c, ok := candidates[kind]
	if !ok {
		return nil, fmt.Errorf("tool: unknown kind %v", kind)
	}
	exe := c.exe
	if override != "" {
		exe = override
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	args := c.backend.ProbeArgs()
	var cmd *exec.Cmd
	if args == "" {
		cmd = exec.CommandContext(ctx, exe)
	} else {
		cmd = exec.CommandContext(ctx, exe, args)
	}
	cmd.Env = append(cmd.Environ(), c.backend.ProbeEnv()...)
	out, _ := cmd.CombinedOutput() // many of these probes exit non-zero on success (eg. cl.exe /?)

	m := c.versionRe.FindStringSubmatch(string(out))
	if m == nil {
		return nil, fmt.Errorf("tool: %s did not look like %s (probe output did not match)", exe, c.backend.Name())
	}
	version, err := semver.NewVersion(m[1])
	if err != nil {
		log.Warningf("tool: %s reported an unparseable version %q: %s", exe, m[1], err)
		version = nil
	}

	log.Debugf("detected %s as %s %v", exe, c.backend.Name(), version)
	allArgs := append(append([]string{}, extraArgs...), compilerWarningArgs(kind, version)...)
	t := &Tool{Backend: c.backend, Role: c.role, Exe: exe, Version: version, ExtraArgs: allArgs}
	return t, nil
}

// Cache memoizes Detect results per Kind+override+triplet, so repeated
// build steps within one invocation don't re-spawn probe processes.
type Cache struct {
	mu    sync.Mutex
	tools map[string]*Tool
}

// NewCache returns an empty tool cache.
func NewCache() *Cache {
	return &Cache{tools: map[string]*Tool{}}
}

// Get returns a copy of the cached tool for (kind, override, extraArgs),
// detecting and caching it on first use. Each call gets its own copy, so
// flags, inputs and libraries a caller sets for one invocation never
// reach the next one.
func (c *Cache) Get(kind Kind, override string, extraArgs []string) (*Tool, error) {
	key := fmt.Sprintf("%d|%s|%s", kind, override, strings.Join(extraArgs, " "))
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tools[key]
	if !ok {
		var err error
		t, err = Detect(kind, override, extraArgs)
		if err != nil {
			return nil, err
		}
		c.tools[key] = t
	}
	cp := *t
	return &cp, nil
}

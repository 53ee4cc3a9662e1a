package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func roundTrip(t *testing.T, b Backend, f Flag) {
	t.Helper()
	tokens := b.Render(f)
	if tokens == nil {
		t.Fatalf("backend %s does not support flag kind %v", b.Name(), f.Kind)
	}
	got, consumed, ok := b.Parse(tokens)
	assert.True(t, ok, "parse failed for rendering of %v: %v", f.Kind, tokens)
	assert.Equal(t, len(tokens), consumed)
	assert.Equal(t, f, got)
}

func TestGccCompilerRoundTrip(t *testing.T) {
	b := NewGccCompiler()
	roundTrip(t, b, Flag{Kind: FlagOutputPath, Path: "out.o"})
	roundTrip(t, b, Flag{Kind: FlagPreprocessOnly})
	roundTrip(t, b, Flag{Kind: FlagDynlib})
	roundTrip(t, b, Flag{Kind: FlagDefine, Name: "FOO", Expansion: "1"})
	roundTrip(t, b, Flag{Kind: FlagDefine, Name: "FOO"})
	roundTrip(t, b, Flag{Kind: FlagIncludeDir, Dir: "/usr/include"})
}

func TestMscCompilerRoundTrip(t *testing.T) {
	b := NewMscCompiler()
	roundTrip(t, b, Flag{Kind: FlagOutputPath, Path: "out.obj"})
	roundTrip(t, b, Flag{Kind: FlagPreprocessOnly})
	roundTrip(t, b, Flag{Kind: FlagDynlib})
	roundTrip(t, b, Flag{Kind: FlagDefine, Name: "FOO", Expansion: "1"})
	roundTrip(t, b, Flag{Kind: FlagIncludeDir, Dir: `C:\include`})
}

func TestGnuLinkerRoundTrip(t *testing.T) {
	b := NewGccLinker()
	roundTrip(t, b, Flag{Kind: FlagOutputPath, Path: "a.out"})
	roundTrip(t, b, Flag{Kind: FlagDynlib})
	roundTrip(t, b, Flag{Kind: FlagLibDir, Dir: "/usr/lib"})
	roundTrip(t, b, Flag{Kind: FlagLib, Lib: "m"})
}

func TestMscLinkerRoundTrip(t *testing.T) {
	b := NewMscLinker()
	roundTrip(t, b, Flag{Kind: FlagOutputPath, Path: "a.exe"})
	roundTrip(t, b, Flag{Kind: FlagDynlib})
	roundTrip(t, b, Flag{Kind: FlagLibDir, Dir: `C:\lib`})
	roundTrip(t, b, Flag{Kind: FlagLib, Lib: "kernel32"})
}

func TestCommandLineOrderForCompiler(t *testing.T) {
	tl := NewCompilerTool(NewGccCompiler(), "g++", nil, nil)
	tl.AddDefine("NDEBUG", "")
	tl.AddIncludeDir("include")
	tl.Output = "a.o"
	tl.Inputs = []string{"a.cpp"}

	argv := tl.CommandLine()
	assert.Equal(t, []string{
		"g++", "-std=c++17", "-c",
		"-DNDEBUG",
		"-I", "include",
		"-o", "a.o",
		"a.cpp",
	}, argv)
}

func TestCommandLineOrderForLinker(t *testing.T) {
	tl := NewLinkerTool(NewGccLinker(), "g++", nil, nil)
	tl.Dynlib = true
	tl.Output = "libfoo.so"
	tl.Inputs = []string{"a.o", "b.o"}
	tl.AddLibDir("lib")
	tl.AddLib("m")

	argv := tl.CommandLine()
	assert.Equal(t, []string{
		"g++", "-shared",
		"-o", "libfoo.so",
		"a.o", "b.o",
		"-L", "lib",
		"-l" + "m",
	}, argv)
}

// Package project loads a project file (§6 "Project file") into a
// validated *core.BuildGraph: parsing the tagged-mapping YAML shape,
// constructing the right Target/Payload pair for each tag, and resolving
// library dependencies whose kind isn't known until the whole file has
// been read.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/complemake/complemake/internal/core"
)

// rawProject is the top-level shape under the "!complemake/project" tag.
type rawProject struct {
	Name    string      `yaml:"name"`
	Targets []yaml.Node `yaml:"targets"`
}

// rawExe is the shape under "!complemake/target/exe".
type rawExe struct {
	Name    string   `yaml:"name"`
	Sources []string `yaml:"sources"`
	Deps    []string `yaml:"deps"`
}

// rawDynLib is the shape under "!complemake/target/dynlib".
type rawDynLib struct {
	Name       string   `yaml:"name"`
	Sources    []string `yaml:"sources"`
	Deps       []string `yaml:"deps"`
	BuildMacro string   `yaml:"build-macro"`
}

// rawExeTest is the shape under "!complemake/target/exetest".
type rawExeTest struct {
	Name                string   `yaml:"name"`
	Sources             []string `yaml:"sources"`
	Deps                []string `yaml:"deps"`
	ExpectedOutput      string   `yaml:"expected-output"`
	FilterOutputTransform string `yaml:"filter-output-transform"`
	UsesAbacladeTesting bool     `yaml:"uses-abaclade-testing"`
}

// rawToolTest is the shape under "!complemake/target/tooltest".
type rawToolTest struct {
	Name                  string   `yaml:"name"`
	Operands              []string `yaml:"operands"`
	FilterOutputTransform string   `yaml:"filter-output-transform"`
}

// Load reads and parses path, relative to dir (the project file's own
// directory, used to resolve source/operand paths), and returns a graph
// that has already been through library-dependency resolution and
// Validate.
func Load(path string) (*core.BuildGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("project: %s: %w", path, err)
	}
	doc, err := documentMapping(&root)
	if err != nil {
		return nil, fmt.Errorf("project: %s: %w", path, err)
	}
	if doc.Tag != "" && doc.Tag != "!complemake/project" && doc.Tag != "!!map" {
		return nil, fmt.Errorf("project: %s: unexpected document tag %q", path, doc.Tag)
	}

	var raw rawProject
	if err := doc.Decode(&raw); err != nil {
		return nil, fmt.Errorf("project: %s: %w", path, err)
	}

	graph := core.NewBuildGraph()
	for i, node := range raw.Targets {
		if err := addTarget(graph, dir, &node); err != nil {
			return nil, fmt.Errorf("project: %s: target %d: %w", path, i, err)
		}
	}
	resolveUndeterminedLibs(graph)
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return graph, nil
}

func documentMapping(root *yaml.Node) (*yaml.Node, error) {
	doc := root
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, fmt.Errorf("empty document")
		}
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at the document root, got %v", doc.Kind)
	}
	return doc, nil
}

func addTarget(graph *core.BuildGraph, dir string, node *yaml.Node) error {
	switch node.Tag {
	case "!complemake/target/exe":
		return addExe(graph, dir, node)
	case "!complemake/target/dynlib":
		return addDynLib(graph, dir, node)
	case "!complemake/target/exetest":
		return addExeTest(graph, dir, node)
	case "!complemake/target/tooltest":
		return addToolTest(graph, dir, node)
	default:
		return fmt.Errorf("unrecognized target tag %q", node.Tag)
	}
}

// sourcesToObjects constructs the CxxPreprocessedTarget/CxxObjectTarget
// chain for each source file, wiring FinalOutput back to owner so a later
// compile step can look up compile-time flags (eg. the dynlib build
// macro), and registers them all with graph. It returns the object
// targets, in source order (§8 property 5: this determines the owner's
// linker input order later).
func sourcesToObjects(graph *core.BuildGraph, dir string, sources []string, owner *core.Target) ([]*core.Target, error) {
	objs := make([]*core.Target, 0, len(sources))
	for _, src := range sources {
		srcPath := filepath.Join(dir, src)
		preprocessed := core.NewTarget(core.KindCxxPreprocessed, "", srcPath+".i",
			&core.CxxPreprocessedPayload{SourcePath: srcPath, FinalOutput: owner})
		if err := graph.AddTarget(preprocessed); err != nil {
			return nil, err
		}
		obj := core.NewTarget(core.KindCxxObject, "", srcPath+".o",
			&core.CxxObjectPayload{SourcePath: srcPath, FinalOutput: owner}, preprocessed)
		if err := graph.AddTarget(obj); err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// libDeps turns a list of library names into Dependency values: each is
// an UndeterminedLib, registered with graph so Load can resolve it once
// every target is known.
func libDeps(graph *core.BuildGraph, names []string) []core.Dependency {
	deps := make([]core.Dependency, 0, len(names))
	for _, name := range names {
		u := &core.UndeterminedLib{Name: name}
		graph.RegisterUndeterminedLib(u)
		deps = append(deps, u)
	}
	return deps
}

func addExe(graph *core.BuildGraph, dir string, node *yaml.Node) error {
	var raw rawExe
	if err := node.Decode(&raw); err != nil {
		return err
	}
	exe := core.NewTarget(core.KindExecutable, raw.Name, filepath.Join(dir, raw.Name), &core.ExecutablePayload{})
	objs, err := sourcesToObjects(graph, dir, raw.Sources, exe)
	if err != nil {
		return err
	}
	exe.Dependencies = append(exe.Dependencies, toDeps(objs)...)
	exe.Dependencies = append(exe.Dependencies, libDeps(graph, raw.Deps)...)
	return graph.AddTarget(exe)
}

func addDynLib(graph *core.BuildGraph, dir string, node *yaml.Node) error {
	var raw rawDynLib
	if err := node.Decode(&raw); err != nil {
		return err
	}
	dl := core.NewTarget(core.KindDynLib, raw.Name, filepath.Join(dir, raw.Name), &core.DynLibPayload{BuildMacro: raw.BuildMacro})
	objs, err := sourcesToObjects(graph, dir, raw.Sources, dl)
	if err != nil {
		return err
	}
	dl.Dependencies = append(dl.Dependencies, toDeps(objs)...)
	dl.Dependencies = append(dl.Dependencies, libDeps(graph, raw.Deps)...)
	return graph.AddTarget(dl)
}

func addExeTest(graph *core.BuildGraph, dir string, node *yaml.Node) error {
	var raw rawExeTest
	if err := node.Decode(&raw); err != nil {
		return err
	}
	payload := &core.ExecutableTestPayload{UsesAbacladeTesting: raw.UsesAbacladeTesting}
	for _, lib := range raw.Deps {
		if lib == "abaclade-testing" {
			payload.UsesAbacladeTesting = true
		}
	}
	if raw.FilterOutputTransform != "" {
		ft, err := core.NewFilterTransform(raw.FilterOutputTransform)
		if err != nil {
			return fmt.Errorf("filter-output-transform: %w", err)
		}
		payload.Transforms = []core.Transform{ft}
	}
	test := core.NewTarget(core.KindExecutableTest, raw.Name, filepath.Join("bin", "test", raw.Name), payload)
	if raw.ExpectedOutput != "" {
		ref := &core.OutputReference{Path: filepath.Join(dir, raw.ExpectedOutput)}
		payload.ExpectedOutput = ref
		test.Dependencies = append(test.Dependencies, ref)
	}
	objs, err := sourcesToObjects(graph, dir, raw.Sources, test)
	if err != nil {
		return err
	}
	test.Dependencies = append(test.Dependencies, toDeps(objs)...)
	test.Dependencies = append(test.Dependencies, libDeps(graph, raw.Deps)...)
	return graph.AddTarget(test)
}

func addToolTest(graph *core.BuildGraph, dir string, node *yaml.Node) error {
	var raw rawToolTest
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if len(raw.Operands) != 2 {
		return fmt.Errorf("tooltest %s: exactly two operands required, got %d", raw.Name, len(raw.Operands))
	}
	payload := &core.ToolTestPayload{}
	if raw.FilterOutputTransform != "" {
		ft, err := core.NewFilterTransform(raw.FilterOutputTransform)
		if err != nil {
			return fmt.Errorf("filter-output-transform: %w", err)
		}
		payload.Transforms = []core.Transform{ft}
	}
	test := core.NewTarget(core.KindToolTest, raw.Name, "", payload)
	for i, op := range raw.Operands {
		ref := &core.OutputReference{Path: filepath.Join(dir, op)}
		payload.Operands[i] = ref
		test.Dependencies = append(test.Dependencies, ref)
	}
	return graph.AddTarget(test)
}

func toDeps(targets []*core.Target) []core.Dependency {
	deps := make([]core.Dependency, len(targets))
	for i, t := range targets {
		deps[i] = t
	}
	return deps
}

// resolveUndeterminedLibs replaces every UndeterminedLib dependency in
// every target's Dependencies with its resolved form, now that every
// named target in the project is registered.
func resolveUndeterminedLibs(graph *core.BuildGraph) {
	for _, t := range graph.Targets() {
		for i, dep := range t.Dependencies {
			if u, ok := dep.(*core.UndeterminedLib); ok {
				t.Dependencies[i] = u.Resolve(graph)
			}
		}
	}
}

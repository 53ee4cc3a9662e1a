package metadata

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/op/go-logging.v1"
	"gopkg.in/yaml.v3"

	"github.com/complemake/complemake/internal/core"
)

var log = logging.MustGetLogger("metadata")

// TargetSnapshot holds, for one target, the signatures of every file
// generated by its direct dependencies ("inputs") and every file it
// itself generates ("outputs"), as of one point in time (§4.1).
type TargetSnapshot struct {
	Inputs  map[string]Signature
	Outputs map[string]Signature
}

func newSnapshot(t *core.Target, dryRun bool) TargetSnapshot {
	snap := TargetSnapshot{
		Inputs:  map[string]Signature{},
		Outputs: map[string]Signature{},
	}
	for _, p := range t.DependencyOutputPaths() {
		snap.Inputs[p] = StatSignature(p)
	}
	for _, p := range t.OwnOutputPaths() {
		if dryRun {
			snap.Outputs[p] = FakeNewSignature(p)
		} else {
			snap.Outputs[p] = StatSignature(p)
		}
	}
	return snap
}

// equal reports whether two snapshots describe the same paths with the
// same signatures. A differing path set (added or removed input/output)
// counts as a change, per §4.1.
func (s TargetSnapshot) equal(o TargetSnapshot) bool {
	return sameSignatureSet(s.Inputs, o.Inputs) && sameSignatureSet(s.Outputs, o.Outputs)
}

func sameSignatureSet(a, b map[string]Signature) bool {
	if len(a) != len(b) {
		return false
	}
	for path, sigA := range a {
		sigB, ok := b[path]
		if !ok || !sigA.Equal(sigB) {
			return false
		}
	}
	return true
}

// MetadataStore persists and loads per-target snapshots and answers
// "has this target's inputs/outputs changed?" (§4.1).
type MetadataStore struct {
	stored  map[string]TargetSnapshot
	current map[string]TargetSnapshot
	cache   map[string]Signature
	dirty   bool
}

// NewMetadataStore constructs an empty store, as if Load had found
// nothing on disk.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		stored:  map[string]TargetSnapshot{},
		current: map[string]TargetSnapshot{},
		cache:   map[string]Signature{},
	}
}

// onDiskStore is the YAML shape written to / read from the metadata file
// (§6 "Metadata file"): a tagged mapping containing a sequence of tagged
// target-snapshots, each keyed by name-or-path.
type onDiskStore struct {
	TargetSnapshots []onDiskSnapshot `yaml:"target-snapshots"`
}

type onDiskSnapshot struct {
	Key     string            `yaml:"key"`
	Inputs  []onDiskSignature `yaml:"inputs"`
	Outputs []onDiskSignature `yaml:"outputs"`
}

type onDiskSignature struct {
	Path  string `yaml:"path"`
	MTime int64  `yaml:"mtime"` // unix seconds; truncation to second resolution is intentional, see Signature.
}

// Load reads a metadata file into stored_snapshots. Snapshots keyed by a
// now-nonexistent name/path are loaded like any other and simply never
// looked up again; they are not removed, and Write persists them again.
// A corrupt or missing file is treated as empty, recovering silently per
// §7.
func (m *MetadataStore) Load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warningf("could not read metadata file %s: %s; starting with no prior snapshots", path, err)
		}
		return
	}
	// yaml.v3 doesn't route custom tags through struct tags for decoding,
	// so the tagged-mapping shape is unwrapped at the Node level instead.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		log.Warningf("could not parse metadata file %s: %s; starting with no prior snapshots", path, err)
		return
	}
	storeNode, err := documentMapping(&root)
	if err != nil {
		log.Warningf("could not parse metadata file %s: %s; starting with no prior snapshots", path, err)
		return
	}
	var store onDiskStore
	if err := storeNode.Decode(&store); err != nil {
		log.Warningf("could not decode metadata file %s: %s; starting with no prior snapshots", path, err)
		return
	}
	for _, s := range store.TargetSnapshots {
		m.stored[s.Key] = TargetSnapshot{
			Inputs:  toSignatureMap(s.Inputs),
			Outputs: toSignatureMap(s.Outputs),
		}
	}
}

// documentMapping unwraps a one-document YAML stream down to its root
// mapping node, tolerating (but not requiring) a leading "%YAML 1.2"
// directive and "---" document marker the way §6 describes.
func documentMapping(root *yaml.Node) (*yaml.Node, error) {
	if root.Kind == 0 {
		return nil, fmt.Errorf("empty document")
	}
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

func toSignatureMap(sigs []onDiskSignature) map[string]Signature {
	out := make(map[string]Signature, len(sigs))
	for _, s := range sigs {
		out[s.Path] = Signature{Path: s.Path, MTime: unixSeconds(s.MTime)}
	}
	return out
}

// HasTargetSnapshotChanged computes a current snapshot for t and compares
// it to the stored one, per the table in §4.1. It never errors: a missing
// file simply yields a signature that compares unequal.
func (m *MetadataStore) HasTargetSnapshotChanged(t *core.Target) bool {
	current := newSnapshot(t, false)
	m.current[t.Ident()] = current
	stored, ok := m.stored[t.Ident()]
	if !ok {
		return true
	}
	return !current.equal(stored)
}

// UpdateTargetSnapshot replaces the stored snapshot for t with the
// current one, stamping outputs with fake-new signatures if dryRun is
// set (so that a later real run still sees them as changed). Marks the
// store dirty.
func (m *MetadataStore) UpdateTargetSnapshot(t *core.Target, dryRun bool) {
	snap := newSnapshot(t, dryRun)
	m.current[t.Ident()] = snap
	m.stored[t.Ident()] = snap
	m.dirty = true
}

// Write atomically persists the store to disk if it is dirty. I/O errors
// are returned to the caller (§7: "surfaced; the build's success/failure
// is unaffected, but the user is informed").
func (m *MetadataStore) Write(path string) error {
	if !m.dirty {
		return nil
	}
	store := onDiskStore{}
	keys := make([]string, 0, len(m.stored))
	for k := range m.stored {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		snap := m.stored[k]
		store.TargetSnapshots = append(store.TargetSnapshots, onDiskSnapshot{
			Key:     k,
			Inputs:  fromSignatureMap(snap.Inputs),
			Outputs: fromSignatureMap(snap.Outputs),
		})
	}
	out, err := yaml.Marshal(struct {
		TargetSnapshots []onDiskSnapshot `yaml:"target-snapshots"`
	}{store.TargetSnapshots})
	if err != nil {
		return err
	}
	doc := append([]byte("%YAML 1.2\n--- !complemake/metadata/store\n"), out...)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	m.dirty = false
	return nil
}

func fromSignatureMap(sigs map[string]Signature) []onDiskSignature {
	keys := make([]string, 0, len(sigs))
	for k := range sigs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]onDiskSignature, 0, len(keys))
	for _, k := range keys {
		s := sigs[k]
		out = append(out, onDiskSignature{Path: s.Path, MTime: s.MTime.Unix()})
	}
	return out
}

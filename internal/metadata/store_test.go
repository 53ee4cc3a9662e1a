package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complemake/complemake/internal/core"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestHasTargetSnapshotChangedTrueWithNoStoredSnapshot(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cpp")
	writeFile(t, src, "int main() {}")
	obj := filepath.Join(dir, "a.cpp.o")
	writeFile(t, obj, "object")

	target := core.NewTarget(core.KindCxxObject, "", obj, &core.CxxObjectPayload{SourcePath: src})
	m := NewMetadataStore()
	assert.True(t, m.HasTargetSnapshotChanged(target))
}

func TestUpdateThenUnchangedSnapshotMatches(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "a.cpp.o")
	writeFile(t, obj, "object")

	target := core.NewTarget(core.KindCxxObject, "", obj, &core.CxxObjectPayload{})
	m := NewMetadataStore()
	m.HasTargetSnapshotChanged(target)
	m.UpdateTargetSnapshot(target, false)

	assert.False(t, m.HasTargetSnapshotChanged(target))
}

func TestTouchingOutputTriggersChange(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "a.cpp.o")
	writeFile(t, obj, "object")

	target := core.NewTarget(core.KindCxxObject, "", obj, &core.CxxObjectPayload{})
	m := NewMetadataStore()
	m.HasTargetSnapshotChanged(target)
	m.UpdateTargetSnapshot(target, false)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(obj, future, future))

	assert.True(t, m.HasTargetSnapshotChanged(target))
}

func TestMissingOutputTriggersChange(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "a.cpp.o")
	writeFile(t, obj, "object")
	target := core.NewTarget(core.KindCxxObject, "", obj, &core.CxxObjectPayload{})
	m := NewMetadataStore()
	m.HasTargetSnapshotChanged(target)
	m.UpdateTargetSnapshot(target, false)

	require.NoError(t, os.Remove(obj))
	assert.True(t, m.HasTargetSnapshotChanged(target))
}

func TestDryRunStampsFakeNewOutputs(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "a.cpp.o")
	// The output doesn't exist yet -- this is the point of a dry run.
	target := core.NewTarget(core.KindCxxObject, "", obj, &core.CxxObjectPayload{})
	m := NewMetadataStore()
	m.UpdateTargetSnapshot(target, true)

	writeFile(t, obj, "object") // simulate the file now existing for real, mtime "now"
	assert.True(t, m.HasTargetSnapshotChanged(target), "fake-new signature must never match a real file's mtime")
}

func TestWriteIsNoopWhenNotDirty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".comk-metadata")
	m := NewMetadataStore()
	require.NoError(t, m.Write(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "a.cpp.o")
	writeFile(t, obj, "object")
	target := core.NewTarget(core.KindCxxObject, "", obj, &core.CxxObjectPayload{})

	m := NewMetadataStore()
	m.HasTargetSnapshotChanged(target)
	m.UpdateTargetSnapshot(target, false)
	path := filepath.Join(dir, ".comk-metadata")
	require.NoError(t, m.Write(path))

	m2 := NewMetadataStore()
	m2.Load(path)
	assert.False(t, m2.HasTargetSnapshotChanged(target))
}

func TestLoadOfMissingFileIsEmptyNotError(t *testing.T) {
	m := NewMetadataStore()
	m.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Empty(t, m.stored)
}

func TestLoadOfCorruptFileIsTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".comk-metadata")
	writeFile(t, path, "{not: valid: yaml:::")
	m := NewMetadataStore()
	m.Load(path)
	assert.Empty(t, m.stored)
}

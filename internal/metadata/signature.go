// Package metadata implements the incremental build engine's snapshot
// persistence: per-target signatures of input/output files, compared
// against a stored snapshot to decide whether a target is out of date
// (§4.1).
package metadata

import (
	"os"
	"time"
)

// Signature pairs a file path with a last-modification time truncated to
// second resolution. Two signatures compare equal iff their truncated
// mtimes are equal (§9 Open Questions: sub-second changes are deliberately
// not observed, matching the system this is derived from).
type Signature struct {
	Path  string
	MTime time.Time
	// missing is true if the file did not exist when this signature was
	// taken; such a signature never compares equal to anything, including
	// another missing signature for the same path, so a missing file
	// always forces a rebuild.
	missing bool
}

// Equal reports whether two signatures are for an equal point in time, at
// second resolution. A Signature for a missing file never equals anything.
func (s Signature) Equal(o Signature) bool {
	if s.missing || o.missing {
		return false
	}
	return s.Path == o.Path && s.MTime.Truncate(time.Second).Equal(o.MTime.Truncate(time.Second))
}

// fakeNewSentinel is an mtime far enough in the future that no real file
// will ever match it. Used to stamp dry-run outputs so that a later,
// real run always finds them "changed" and rebuilds downstream targets.
var fakeNewSentinel = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// FakeNewSignature returns the sentinel signature used for dry-run
// outputs: its mtime cannot be matched by any real file.
func FakeNewSignature(path string) Signature {
	return Signature{Path: path, MTime: fakeNewSentinel}
}

// unixSeconds turns a stored unix-seconds timestamp back into a time.Time
// at second resolution, matching the truncation Signature.Equal applies.
func unixSeconds(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// StatSignature stats path and returns its signature. A missing file
// yields a Signature that never compares equal to any other (including
// another missing signature), matching the "missing file -> signature is
// null, compares unequal" rule in §4.1.
func StatSignature(path string) Signature {
	info, err := os.Stat(path)
	if err != nil {
		return Signature{Path: path, missing: true}
	}
	return Signature{Path: path, MTime: info.ModTime()}
}

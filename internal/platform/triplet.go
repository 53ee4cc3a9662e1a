// Package platform encodes per-OS file naming, library search path
// conventions, default linker inputs, and the system-triplet parsing
// that picks among them (§4.3).
package platform

import (
	"fmt"
	"strings"
)

// Triplet is a hyphen-separated machine-vendor-kernel-os tuple, with some
// components optional (GLOSSARY "System type").
type Triplet struct {
	Machine string
	Vendor  string
	Kernel  string
	OS      string
}

func (t Triplet) String() string {
	parts := []string{t.Machine}
	if t.Vendor != "" {
		parts = append(parts, t.Vendor)
	}
	if t.Kernel != "" {
		parts = append(parts, t.Kernel)
	}
	if t.OS != "" {
		parts = append(parts, t.OS)
	}
	return strings.Join(parts, "-")
}

// ParseTriplet accepts 1/2/3/4-part system-type tuples. The 3-part case is
// ambiguous between "machine-vendor-os" and "machine-kernel-os"; it is
// disambiguated by reserving the "gnu" OS name to imply the kernel form
// (eg. "x86_64-linux-gnu" is machine=x86_64 kernel=linux os=gnu, not
// machine=x86_64 vendor=linux os=gnu). "none" and "unknown" in the vendor
// slot are normalized to absent, matching §4.3.
func ParseTriplet(s string) (Triplet, error) {
	parts := strings.Split(s, "-")
	switch len(parts) {
	case 1:
		return normalizeVendor(Triplet{Machine: parts[0]}), nil
	case 2:
		return normalizeVendor(Triplet{Machine: parts[0], OS: parts[1]}), nil
	case 3:
		if parts[2] == "gnu" || strings.HasPrefix(parts[2], "gnu") {
			// machine-kernel-os, eg. x86_64-linux-gnueabihf
			return normalizeVendor(Triplet{Machine: parts[0], Kernel: parts[1], OS: parts[2]}), nil
		}
		return normalizeVendor(Triplet{Machine: parts[0], Vendor: parts[1], OS: parts[2]}), nil
	case 4:
		return normalizeVendor(Triplet{Machine: parts[0], Vendor: parts[1], Kernel: parts[2], OS: parts[3]}), nil
	default:
		return Triplet{}, fmt.Errorf("platform: cannot parse system type %q", s)
	}
}

func normalizeVendor(t Triplet) Triplet {
	if t.Vendor == "none" || t.Vendor == "unknown" {
		t.Vendor = ""
	}
	return t
}

// Kind identifies a concrete platform variant.
type Kind int

const (
	GNU Kind = iota
	FreeBSD
	Darwin
	Win32
	Win64
)

func (k Kind) String() string {
	switch k {
	case GNU:
		return "gnu"
	case FreeBSD:
		return "freebsd"
	case Darwin:
		return "darwin"
	case Win32:
		return "win32"
	case Win64:
		return "win64"
	default:
		return "unknown"
	}
}

// DetectKind maps a parsed triplet onto a concrete platform variant by
// matching its kernel/os components.
func DetectKind(t Triplet) (Kind, error) {
	os := strings.ToLower(t.OS)
	kernel := strings.ToLower(t.Kernel)
	machine := strings.ToLower(t.Machine)
	switch {
	case strings.Contains(os, "darwin") || strings.Contains(os, "macos"):
		return Darwin, nil
	case strings.Contains(kernel, "freebsd") || strings.Contains(os, "freebsd"):
		return FreeBSD, nil
	case strings.Contains(os, "windows") || strings.Contains(os, "win32") || strings.Contains(os, "mingw") || strings.Contains(os, "msvc"):
		if strings.Contains(machine, "64") {
			return Win64, nil
		}
		return Win32, nil
	case strings.Contains(kernel, "linux") || strings.Contains(os, "gnu"):
		return GNU, nil
	default:
		return 0, fmt.Errorf("platform: unrecognized system type %q", t.String())
	}
}

//go:build windows

package fs

// PlatformCaseInsensitive is the default case-sensitivity answer for
// filesystems backed by the host OS.
const PlatformCaseInsensitive = true

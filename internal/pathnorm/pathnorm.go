// Package pathnorm converts user-supplied path strings into the canonical form
// stored for favorites.
//
// Normalization is purely lexical: "." and ".." segments and repeated
// separators are resolved without consulting the filesystem, so the target
// need not exist and symbolic links are never followed. Relative inputs are
// anchored at a working directory, which makes "./a/../a/b" and "a/b"
// equivalent when typed from the same place.
package pathnorm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrInvalidPath is returned when the input cannot be parsed as a path on the
// host platform.
var ErrInvalidPath = errors.New("invalid path")

// windowsReserved lists characters Windows forbids in path components.
// ':' is handled separately because it is legal in the volume name.
const windowsReserved = `<>"|?*`

// windowsDevicePrefixes are the extended-length and device namespace
// prefixes, which may precede a drive letter.
var windowsDevicePrefixes = []string{`\\?\`, `\\.\`, `//?/`, `//./`}

// Normalize returns the canonical form of input, resolving relative paths
// against the process working directory.
func Normalize(input string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return NormalizeFrom(wd, input)
}

// NormalizeFrom returns the canonical form of input, resolving relative paths
// against base. base is expected to be absolute; it is cleaned but not
// validated.
func NormalizeFrom(base, input string) (string, error) {
	if err := validate(runtime.GOOS, input); err != nil {
		return "", err
	}

	p, err := expandHome(input)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = anchor(base, p)
	}
	return filepath.Clean(p), nil
}

// anchor joins the relative path p onto base. On Windows p may still carry a
// drive ("C:dir") or a root without one (`\dir`); those keep their drive or
// borrow base's.
func anchor(base, p string) string {
	vol := filepath.VolumeName(p)
	switch {
	case vol != "":
		rest := p[len(vol):]
		if strings.EqualFold(vol, filepath.VolumeName(base)) {
			return filepath.Join(base, rest)
		}
		return filepath.Join(vol+string(filepath.Separator), rest)
	case p != "" && os.IsPathSeparator(p[0]):
		return filepath.VolumeName(base) + p
	}
	return filepath.Join(base, p)
}

// validate checks input against the path grammar of goos.
func validate(goos, input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if strings.ContainsRune(input, 0) {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidPath, input)
	}
	if goos != "windows" {
		return nil
	}

	rest := input
	for _, prefix := range windowsDevicePrefixes {
		if strings.HasPrefix(rest, prefix) {
			rest = rest[len(prefix):]
			break
		}
	}
	if len(rest) >= 2 && rest[1] == ':' && isDriveLetter(rest[0]) {
		rest = rest[2:]
	}
	if i := strings.IndexAny(rest, windowsReserved+":"); i >= 0 {
		return fmt.Errorf("%w: %q contains reserved character %q", ErrInvalidPath, input, rest[i])
	}
	for _, r := range rest {
		if r < 0x20 {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidPath, input)
		}
	}
	return nil
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// expandHome replaces a leading "~" with the user's home directory. Forms
// like "~user" are left untouched.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~`+string(filepath.Separator)) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// Package href classifies and resolves STAC references.
//
// A reference is either a URL (any scheme) or an opaque local-path string.
// Resolution is purely lexical: it never touches the filesystem and never
// follows symlinks.
package href

import (
	"errors"
	"net/url"
	"strings"
)

// Kind classifies a reference string.
type Kind int

const (
	// KindLocalPath is a bare filesystem path, absolute or relative.
	KindLocalPath Kind = iota
	// KindURL is any scheme other than a bare path, including file:.
	KindURL
)

// ErrInvalidReference is returned when a reference cannot be classified.
var ErrInvalidReference = errors.New("href: invalid reference")

// Classify determines whether ref is a URL or a local path.
//
// A string starting with a Windows drive letter ("C:\...") or a UNC prefix
// ("\\server\share") is always a local path, even though "C:" parses as a
// URL scheme.
func Classify(ref string) Kind {
	if isWindowsPath(ref) {
		return KindLocalPath
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return KindLocalPath
	}
	return KindURL
}

// IsAbsolute reports whether ref is absolute: a URL, or a path beginning
// with "/".
func IsAbsolute(ref string) bool {
	if Classify(ref) == KindURL && !isWindowsPath(ref) {
		return true
	}
	return strings.HasPrefix(ref, "/") || isWindowsPath(ref)
}

func isWindowsPath(ref string) bool {
	if strings.HasPrefix(ref, `\\`) {
		return true
	}
	if len(ref) >= 3 && isDriveLetter(ref[0]) && ref[1] == ':' && (ref[2] == '\\' || ref[2] == '/') {
		return true
	}
	return false
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// MakeAbsolute resolves ref against base. If ref is already absolute it is
// returned unchanged. When base is a URL, resolution delegates to
// url.Parse/ResolveReference; otherwise the two strings are joined and
// normalized lexically, never touching the filesystem.
func MakeAbsolute(ref, base string) (string, error) {
	if IsAbsolute(ref) {
		return ref, nil
	}
	if Classify(base) == KindURL && !isWindowsPath(base) {
		baseURL, err := url.Parse(base)
		if err != nil {
			return "", ErrInvalidReference
		}
		refURL, err := url.Parse(ref)
		if err != nil {
			return "", ErrInvalidReference
		}
		return baseURL.ResolveReference(refURL).String(), nil
	}
	return makeAbsoluteString(ref, base), nil
}

// makeAbsoluteString joins ref onto base (stripped to its last "/") and
// normalizes "." / ".." segments lexically. Ported from the reference
// implementation's make_absolute/normalize_path.
func makeAbsoluteString(ref, base string) string {
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	idx := strings.LastIndex(base, "/")
	var joined string
	if idx < 0 {
		joined = ref
	} else {
		joined = base[:idx] + "/" + ref
	}
	return normalizePath(joined)
}

func normalizePath(path string) string {
	var parts []string
	if !strings.HasPrefix(path, "/") {
		parts = append(parts, "")
	}
	for _, part := range strings.Split(path, "/") {
		switch part {
		case ".":
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/")
}

// MakeRelative computes the shortest reference such that
// MakeAbsolute(MakeRelative(ref, base), base) == ref, when both share an
// origin. When the two are URLs with differing origins, ref is returned
// unchanged.
func MakeRelative(ref, base string) (string, error) {
	baseIsURL := Classify(base) == KindURL && !isWindowsPath(base)

	if baseIsURL {
		baseURL, err := url.Parse(base)
		if err != nil {
			return "", ErrInvalidReference
		}
		refURL, err := url.Parse(ref)
		if err != nil {
			return "", ErrInvalidReference
		}
		if refURL.Scheme != "" && refURL.Host != "" &&
			(refURL.Scheme != baseURL.Scheme || refURL.Host != baseURL.Host) {
			return ref, nil
		}
		rel := urlMakeRelative(baseURL, refURL)
		if rel == "" {
			return ref, nil
		}
		return rel, nil
	}
	return makeRelativeString(ref, base), nil
}

// urlMakeRelative mirrors url.URL's lack of a make_relative method by
// relativizing on the path component alone, matching the reference
// implementation's use of Rust url::Url::make_relative.
func urlMakeRelative(base, target *url.URL) string {
	if base.Scheme != target.Scheme || base.Host != target.Host {
		return ""
	}
	rel := makeRelativeString(target.Path, base.Path)
	if target.RawQuery != "" {
		rel += "?" + target.RawQuery
	}
	if target.Fragment != "" {
		rel += "#" + target.Fragment
	}
	return rel
}

// makeRelativeString ports the reference implementation's make_relative:
// split both into (path, filename), walk common leading path segments,
// then emit ".." for each remaining base segment and the remaining href
// segments.
func makeRelativeString(ref, base string) string {
	basePath, baseFile := splitPathFile(base)
	refPath, refFile := splitPathFile(ref)

	baseSegs := strings.Split(basePath, "/")
	refSegs := strings.Split(refPath, "/")

	i := 0
	for i < len(baseSegs) && i < len(refSegs) && baseSegs[i] == refSegs[i] {
		i++
	}

	var relative strings.Builder
	for _, seg := range baseSegs[i:] {
		if seg == "" {
			break
		}
		if relative.Len() > 0 {
			relative.WriteByte('/')
		}
		relative.WriteString("..")
	}

	for _, seg := range refSegs[i:] {
		if relative.Len() == 0 {
			relative.WriteString("./")
		} else {
			relative.WriteByte('/')
		}
		relative.WriteString(seg)
	}

	out := relative.String()
	if out != "" || baseFile != refFile {
		if refFile == "" {
			out += "/"
		} else {
			if out == "" {
				out = "./"
			} else {
				out += "/"
			}
			out += refFile
		}
	}
	return out
}

func splitPathFile(s string) (path, file string) {
	idx := strings.LastIndex(s, "/")
	if idx < 0 {
		return "", s
	}
	return s[:idx], s[idx+1:]
}

package fs

import (
	"fmt"
	"strings"
)

// FilePath is the path value object: an ordered sequence of path
// components, either absolute or relative.
type FilePath struct {
	absolute   bool
	components []string
}

// ParsePath constructs a FilePath from a textual path.
func ParsePath(s string) FilePath {
	var p FilePath
	p.Merge(s)
	return p
}

// IsEmpty reports whether the path denotes the root.
func (p FilePath) IsEmpty() bool { return len(p.components) == 0 }

// IsBottomLevel reports whether at most one component remains.
func (p FilePath) IsBottomLevel() bool { return len(p.components) <= 1 }

// SplitBottomLevel returns and removes the first remaining component, or
// "" if the path is already empty. Callers repeat this until
// IsBottomLevel is true, then call it once more to obtain the leaf name.
func (p *FilePath) SplitBottomLevel() string {
	if len(p.components) == 0 {
		return ""
	}
	head := p.components[0]
	p.components = p.components[1:]
	return head
}

// Merge extends p with a textual path: an absolute path resets p first;
// a relative path extends it; "." is a no-op; ".." pops the last
// component, never below empty.
func (p *FilePath) Merge(s string) {
	if strings.HasPrefix(s, "/") {
		p.components = nil
		p.absolute = true
	}
	for _, c := range strings.Split(s, "/") {
		switch c {
		case "", ".":
			// trailing/duplicate slashes and "." are dropped
		case "..":
			if len(p.components) > 0 {
				p.components = p.components[:len(p.components)-1]
			}
		default:
			p.components = append(p.components, c)
		}
	}
}

// Clone returns an independent copy of p.
func (p FilePath) Clone() FilePath {
	cp := make([]string, len(p.components))
	copy(cp, p.components)
	return FilePath{absolute: p.absolute, components: cp}
}

// String renders the normalized textual form of p.
func (p FilePath) String() string {
	if len(p.components) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.components, "/")
}

// Validate checks that every component is non-empty and at most nameMax
// bytes (empty components never occur by construction of Merge, but a
// caller-supplied leaf name is checked the same way).
func (p FilePath) Validate(nameMax int) error {
	for _, c := range p.components {
		if len(c) == 0 {
			return fmt.Errorf("%w: empty path component", ErrInvalidName)
		}
		if len(c) > nameMax {
			return fmt.Errorf("%w: %q exceeds %d bytes", ErrInvalidName, c, nameMax)
		}
	}
	return nil
}

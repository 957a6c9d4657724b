package cache

import "strings"

// ArtifactKeyOpts identifies one rendering of a loaded layout.
type ArtifactKeyOpts struct {
	Kind   string // "world" or "hierarchy"
	Format string // "svg" or "dot"
	Root   string
	Theme  string
	Layers string // hash of the layer settings in effect
}

// Keyer builds cache keys.
type Keyer interface {
	// LibraryKey is the key of the decoded library for an input hash.
	LibraryKey(inputHash string) string
	// ArtifactKey is the key of a rendered artifact for an input hash.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "library:<hash>" and "artifact:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LibraryKey(inputHash string) string {
	return "library:" + inputHash
}

func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", inputHash, opts)
}

// ScopedKeyer prefixes every key of an inner keyer. Shared backends (Redis,
// MongoDB) use it to keep gdsview entries apart from other tenants and from
// older payload formats.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer if inner is nil. A
// trailing colon is added to prefix if it has none.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LibraryKey(inputHash string) string {
	return k.prefix + k.inner.LibraryKey(inputHash)
}

func (k *ScopedKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(inputHash, opts)
}

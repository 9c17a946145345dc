// Package probe answers "does this corpus resource exist" under the two
// deployment environments the survey runs in: a dev server that answers
// per-resource requests, and static hosting with no directory introspection.
package probe

import "context"

// Strategy is the existence oracle consulted by the resolver. A strategy is
// selected once at construction from the corpus mode; the resolver never
// branches on the environment itself.
//
// Every method resolves within the configured timeout and never returns an
// error: a probe that fails, times out, or is disallowed simply answers false.
type Strategy interface {
	// DirExists reports whether the directory at path is reachable.
	//
	// Contract limitation: servers that 404 directory URLs leave only an
	// indirect check — probing a small set of well-known candidate filenames
	// inside the directory. A directory that exists but is empty, or that
	// uses unexpected filenames, is therefore reported absent.
	DirExists(ctx context.Context, path string) bool

	// FileExists reports whether the file at path is reachable.
	FileExists(ctx context.Context, path string) bool

	// KnownImages returns the authored image list for a pair directory when
	// the strategy carries one, letting the resolver skip candidate probing
	// entirely. Probing strategies return (nil, false).
	KnownImages(path string) ([]string, bool)
}

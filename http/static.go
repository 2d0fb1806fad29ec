package http

import (
	"path/filepath"
	"strings"

	"github.com/quarryhq/basalt/filesystem"
)

type staticOutcome int

const (
	// staticMiss falls through to the handler: the path does not resolve to
	// an existing regular file (directories included).
	staticMiss staticOutcome = iota
	staticHit
	// staticRejected is a traversal attempt; it is answered with 404, never
	// 403, and the path is never opened.
	staticRejected
)

// resolveStatic maps a request path onto the static root. Any path holding
// a "." or ".." component is rejected before the filesystem is consulted.
// The guard is best effort: it does not canonicalize symlinks, so a
// symlinked file below the root still resolves.
func resolveStatic(fsys filesystem.Filesystem, root, requestPath string) (string, staticOutcome) {
	for _, part := range strings.Split(requestPath, "/") {
		if part == "." || part == ".." {
			return "", staticRejected
		}
	}

	// The request path always carries a leading slash; joining it as-is
	// would discard the root.
	path := filepath.Join(root, strings.TrimPrefix(requestPath, "/"))

	isFile, err := fsys.IsFile(path)
	if err != nil || !isFile {
		return "", staticMiss
	}
	return path, staticHit
}

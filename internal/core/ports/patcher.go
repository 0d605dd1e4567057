package ports

// Patcher rewrites dynamic-linking metadata in staged binaries so installed
// executables reference their final on-disk locations.
//
//go:generate go run go.uber.org/mock/mockgen -source=patcher.go -destination=mocks/mock_patcher.go -package=mocks
type Patcher interface {
	// RelocateTree walks root and rewrites every recognized binary whose
	// load commands reference a placeholder path, using the given
	// placeholder-to-final-path replacements. Files that are not linkable
	// binaries, or that cannot be parsed, are skipped. Returns the number
	// of patched files; a rewritten path that does not fit its reserved
	// field returns domain.ErrPatchFailed and leaves that file untouched.
	RelocateTree(root string, replacements map[string]string) (int, error)
}

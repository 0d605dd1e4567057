package domain

import "go.trai.ch/zerr"

var (
	// ErrUnknownPackage is returned when a requested name is absent from the catalog.
	ErrUnknownPackage = zerr.New("unknown package")

	// ErrCycleDetected is returned when the blocking dependency edges form a cycle.
	ErrCycleDetected = zerr.New("dependency cycle detected")

	// ErrChecksumMismatch is returned when a downloaded artifact fails verification.
	// It is fatal for the node and never retried.
	ErrChecksumMismatch = zerr.New("checksum mismatch")

	// ErrDownloadFailed is returned after the bounded retry budget is exhausted.
	ErrDownloadFailed = zerr.New("download failed")

	// ErrBuildFailed is returned when a build strategy exits non-zero.
	ErrBuildFailed = zerr.New("build failed")

	// ErrPatchFailed is returned when a rewritten load-command path does not
	// fit the binary's reserved field length.
	ErrPatchFailed = zerr.New("binary patch failed")

	// ErrLinkConflict is returned when a prefix entry not owned by the package
	// being linked already exists.
	ErrLinkConflict = zerr.New("link conflict")

	// ErrReferenceStillExists is returned when uninstalling a package that an
	// installed receipt still lists as a dependency.
	ErrReferenceStillExists = zerr.New("package is still referenced")

	// ErrInsufficientPermissions is returned when the store or prefix cannot be written.
	ErrInsufficientPermissions = zerr.New("insufficient permissions")

	// ErrNoArtifact is returned when a spec offers no artifact for the chosen action.
	ErrNoArtifact = zerr.New("no artifact available")

	// ErrNotInstalled is returned when uninstalling a package without a receipt.
	ErrNotInstalled = zerr.New("package is not installed")

	// ErrInvalidTransition is returned on an attempt to move a plan node
	// backwards or out of a terminal status.
	ErrInvalidTransition = zerr.New("invalid status transition")

	// ErrNoPackagesSpecified is returned when an install is requested without roots.
	ErrNoPackagesSpecified = zerr.New("no packages specified")

	// ErrInstallFailed is the aggregate error when one or more nodes fail.
	ErrInstallFailed = zerr.New("install failed")
)

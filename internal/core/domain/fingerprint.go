package domain

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// FlagsFingerprint computes a deterministic hash of the install choices that
// affect a keg's contents. Receipts record it so a later resolution with the
// same flags can short-circuit to AlreadyInstalled, while a resolution with
// different flags triggers a re-install.
func FlagsFingerprint(action Action, flags InstallFlags) string {
	h := xxhash.New()
	_, _ = h.WriteString(string(action))
	_, _ = h.Write([]byte{0})
	for _, b := range []bool{flags.BuildFromSource, flags.IncludeOptional, flags.SkipRecommended} {
		if b {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Package macho rewrites dynamic-linking load commands in Mach-O binaries
// so staged kegs reference their final install paths.
package macho

import (
	"encoding/binary"
	"strings"

	"go.trai.ch/hops/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	magic64    = 0xFEEDFACF // 64-bit little-endian Mach-O
	magicFat   = 0xCAFEBABE // universal binary, big-endian headers
	header64   = 32
	fatHeader  = 8
	fatArchLen = 20

	loadDylib     = 0xC
	idDylib       = 0xD
	loadWeakDylib = 0x80000018
	rpath         = 0x8000001C
)

// patchBuffer rewrites every dylib and rpath load command in data whose path
// contains one of the replacement keys. It mutates data in place and reports
// whether anything changed. A rewritten path that does not fit the space its
// load command reserves fails the whole buffer, so callers can leave the
// file on disk untouched.
func patchBuffer(data []byte, replacements map[string]string) (bool, error) {
	if len(data) < 4 {
		return false, errNotMachO
	}
	switch {
	case binary.LittleEndian.Uint32(data) == magic64:
		return patchSlice(data, replacements)
	case binary.BigEndian.Uint32(data) == magicFat:
		return patchFat(data, replacements)
	default:
		return false, errNotMachO
	}
}

// errNotMachO marks files the codec does not recognize. The tree walker
// downgrades it to a skip.
var errNotMachO = zerr.New("not a mach-o binary")

// errMalformed marks files that carry a recognized magic number but whose
// structure cannot be parsed, like Java class files sharing the fat magic
// or truncated images. They are skipped with a warning, never failed.
var errMalformed = zerr.New("malformed mach-o binary")

func malformed(reason string) error {
	return zerr.With(errMalformed, "reason", reason)
}

// patchFat dispatches over the slices of a universal binary. Only 64-bit
// little-endian slices are rewritten; other architectures pass through.
func patchFat(data []byte, replacements map[string]string) (bool, error) {
	if len(data) < fatHeader {
		return false, malformed("truncated fat header")
	}
	count := binary.BigEndian.Uint32(data[4:])
	if count > 16 {
		return false, malformed("implausible fat arch count")
	}

	changed := false
	for i := uint32(0); i < count; i++ {
		arch := fatHeader + int(i)*fatArchLen
		if arch+fatArchLen > len(data) {
			return false, malformed("truncated fat arch table")
		}
		offset := binary.BigEndian.Uint32(data[arch+8:])
		size := binary.BigEndian.Uint32(data[arch+12:])
		end := int(offset) + int(size)
		if end > len(data) || int(offset) >= end {
			return false, malformed("fat arch out of bounds")
		}

		slice := data[offset:end]
		if len(slice) < 4 || binary.LittleEndian.Uint32(slice) != magic64 {
			continue
		}
		sliceChanged, err := patchSlice(slice, replacements)
		if err != nil {
			return false, err
		}
		changed = changed || sliceChanged
	}
	return changed, nil
}

// patchSlice rewrites the load commands of one 64-bit Mach-O image.
func patchSlice(data []byte, replacements map[string]string) (bool, error) {
	if len(data) < header64 {
		return false, malformed("truncated header")
	}
	ncmds := binary.LittleEndian.Uint32(data[16:])
	sizeofcmds := binary.LittleEndian.Uint32(data[20:])
	if header64+int(sizeofcmds) > len(data) {
		return false, malformed("load commands exceed file size")
	}

	changed := false
	offset := header64
	for i := uint32(0); i < ncmds; i++ {
		if offset+8 > len(data) {
			return false, malformed("truncated load command")
		}
		cmd := binary.LittleEndian.Uint32(data[offset:])
		cmdsize := int(binary.LittleEndian.Uint32(data[offset+4:]))
		if cmdsize < 8 || offset+cmdsize > len(data) {
			return false, malformed("invalid load command size")
		}

		switch cmd {
		case loadDylib, idDylib, loadWeakDylib, rpath:
			cmdChanged, err := patchPath(data[offset:offset+cmdsize], replacements)
			if err != nil {
				return false, err
			}
			changed = changed || cmdChanged
		}
		offset += cmdsize
	}
	return changed, nil
}

// patchPath rewrites the path string of a single dylib or rpath command.
// Both command layouts store the string offset at byte 8; the string runs
// from that offset to the end of the command, NUL padded.
func patchPath(cmd []byte, replacements map[string]string) (bool, error) {
	if len(cmd) < 12 {
		return false, malformed("truncated path command")
	}
	strOff := int(binary.LittleEndian.Uint32(cmd[8:]))
	if strOff < 12 || strOff >= len(cmd) {
		return false, malformed("path offset out of bounds")
	}

	field := cmd[strOff:]
	current := string(field)
	if i := strings.IndexByte(current, 0); i >= 0 {
		current = current[:i]
	}

	rewritten := current
	for placeholder, actual := range replacements {
		rewritten = strings.ReplaceAll(rewritten, placeholder, actual)
	}
	if rewritten == current {
		return false, nil
	}

	// The string and its terminating NUL must fit the space the command
	// reserved at link time.
	if len(rewritten)+1 > len(field) {
		err := zerr.With(domain.ErrPatchFailed, "path", rewritten)
		err = zerr.With(err, "length", len(rewritten)+1)
		return false, zerr.With(err, "reserved", len(field))
	}

	copy(field, rewritten)
	clearFrom(field, len(rewritten))
	return true, nil
}

func clearFrom(field []byte, start int) {
	for i := start; i < len(field); i++ {
		field[i] = 0
	}
}

// isMachO reports whether the first bytes carry a recognized magic number.
func isMachO(head []byte) bool {
	if len(head) < 4 {
		return false
	}
	return binary.LittleEndian.Uint32(head) == magic64 || binary.BigEndian.Uint32(head) == magicFat
}

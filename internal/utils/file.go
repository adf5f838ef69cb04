package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// WriteFileAtomic writes data to path through a uniquely named temporary file
// in the same directory, renamed into place once the write is complete. A
// crash mid-write leaves a stray .part file behind instead of a truncated
// download.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp := filepath.Join(dir, uuid.NewString()+".part")
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// SniffedExtension inspects the payload's magic bytes and returns the
// extension they indicate, or "" when the payload is unrecognized. Callers
// compare it against the extension they asked the server for; a mismatch
// usually means an error page was served in place of the file.
func SniffedExtension(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.Extension
}

// ExtensionMatches reports whether the sniffed payload type agrees with the
// requested filetype. Unknown payloads pass: several of the archive's formats
// are plain text and carry no magic bytes.
func ExtensionMatches(data []byte, ft string) bool {
	sniffed := SniffedExtension(data)
	if sniffed == "" {
		return true
	}
	want := strings.ToLower(ft)
	if want == "azw3" {
		// filetype reports Amazon books under the mobi family.
		return sniffed == "mobi" || sniffed == "azw3"
	}
	return sniffed == want
}

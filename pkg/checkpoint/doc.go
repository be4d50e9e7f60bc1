// Package checkpoint persists extraction progress so an interrupted walk
// can resume without refetching earlier pages.
//
// One JSON state file is kept per target. It records the last continuation
// cursor, the page index, the keys of every record already emitted and the
// running item count. A resumed walk seeds its deduplication set from the
// saved keys and continues from the saved cursor; a completed run deletes
// its state file.
//
// States are stored in platform-specific data directories:
//   - Linux: ~/.local/share/igextract/checkpoints/
//   - macOS: ~/Library/Application Support/igextract/checkpoints/
//   - Windows: %APPDATA%/igextract/checkpoints/
//
// Files are written atomically (temp file plus rename) to prevent
// corruption and carry a version field for future compatibility.
package checkpoint

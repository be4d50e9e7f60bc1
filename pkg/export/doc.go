// Package export writes extraction results to disk.
//
// Each target gets its own directory under the output root, holding
// records.ndjson (one self-describing record per line) and summary.json
// (the last run's status, counts and failures). Appending the same
// target again skips records already on disk, so repeated or resumed
// runs never duplicate output; the key set survives process restarts by
// rescanning the NDJSON file. Summaries are replaced atomically.
package export

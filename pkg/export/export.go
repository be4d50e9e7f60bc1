package export

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	errs "igextract/pkg/errors"
	"igextract/pkg/logger"
	"igextract/pkg/record"
	"igextract/pkg/session"
)

// line is one NDJSON entry: the record itself plus the kind and key that
// make the line self-describing, so a later append can rescan the file
// without knowing the record shapes.
type line struct {
	Kind record.Kind `json:"kind"`
	Key  string      `json:"key"`
	Data interface{} `json:"data"`
}

// Summary is the per-target run digest written next to the records.
type Summary struct {
	SessionID  string            `json:"session_id"`
	Target     string            `json:"target"`
	Type       string            `json:"scrape_type"`
	Status     string            `json:"status"`
	Counts     session.Counts    `json:"counts"`
	Failures   []session.Failure `json:"failures"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   string            `json:"duration"`
	Written    int               `json:"records_written"`
	Skipped    int               `json:"records_skipped"`
	ExportedAt time.Time         `json:"exported_at"`
}

// Stats reports what one Export call did.
type Stats struct {
	// Dir is the target's export directory.
	Dir string
	// Written is how many records were appended.
	Written int
	// Skipped is how many records were already present.
	Skipped int
}

const (
	recordsFile = "records.ndjson"
	summaryFile = "summary.json"
)

// Writer exports extraction results under one output directory, one
// subdirectory per target. Records already exported for a target are
// skipped on later appends, including appends from a fresh process: the
// existing NDJSON file is rescanned for keys on first touch.
type Writer struct {
	dir string
	log logger.Logger

	mu   sync.Mutex
	seen map[string]map[string]struct{}
}

// NewWriter builds a writer rooted at dir, creating it if needed.
func NewWriter(dir string, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Wrap(errs.ClassFatal, "creating output directory", err)
	}
	return &Writer{
		dir:  dir,
		log:  log,
		seen: make(map[string]map[string]struct{}),
	}, nil
}

// Dir returns the root output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// TargetDir returns the export directory for a target reference.
func (w *Writer) TargetDir(target string) string {
	return filepath.Join(w.dir, flatten(target))
}

// Export appends the result's records to the target's NDJSON file and
// rewrites its summary. Duplicate records are counted, not rewritten.
func (w *Writer) Export(result *session.ExtractionResult) (Stats, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := Stats{Dir: w.TargetDir(result.Target)}
	if err := os.MkdirAll(stats.Dir, 0755); err != nil {
		return stats, errs.Wrap(errs.ClassFatal, "creating target directory", err)
	}

	seen, err := w.seenKeys(result.Target, stats.Dir)
	if err != nil {
		return stats, err
	}

	records := result.Records()
	fresh := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.Key()]; ok {
			stats.Skipped++
			continue
		}
		fresh = append(fresh, rec)
	}

	if len(fresh) > 0 {
		if err := w.appendRecords(stats.Dir, fresh); err != nil {
			return stats, err
		}
		for _, rec := range fresh {
			seen[rec.Key()] = struct{}{}
		}
		stats.Written = len(fresh)
	}

	if err := w.writeSummary(stats.Dir, result, stats); err != nil {
		return stats, err
	}

	w.log.WithFields(map[string]interface{}{
		"target":  result.Target,
		"written": stats.Written,
		"skipped": stats.Skipped,
		"dir":     stats.Dir,
	}).Info("records exported")
	return stats, nil
}

// seenKeys returns the target's written-key set, scanning a pre-existing
// records file the first time the target is touched.
func (w *Writer) seenKeys(target, dir string) (map[string]struct{}, error) {
	if keys, ok := w.seen[target]; ok {
		return keys, nil
	}
	keys := make(map[string]struct{})

	f, err := os.Open(filepath.Join(dir, recordsFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ClassFatal, "opening existing records file", err)
		}
		w.seen[target] = keys
		return keys, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var entry struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			// A torn final line from a crashed append; the record will be
			// written again intact.
			w.log.WithError(err).Warn("skipping undecodable export line")
			continue
		}
		if entry.Key != "" {
			keys[entry.Key] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.ClassFatal, "scanning existing records file", err)
	}

	w.seen[target] = keys
	return keys, nil
}

func (w *Writer) appendRecords(dir string, records []record.Record) error {
	path := filepath.Join(dir, recordsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errs.Wrap(errs.ClassFatal, "opening records file", err)
	}

	for _, rec := range records {
		blob, err := json.Marshal(line{Kind: rec.RecordKind(), Key: rec.Key(), Data: rec})
		if err != nil {
			f.Close()
			return errs.Wrap(errs.ClassFatal, "encoding record", err)
		}
		if _, err := f.Write(append(blob, '\n')); err != nil {
			f.Close()
			return errs.Wrap(errs.ClassFatal, "appending record", err)
		}
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.ClassFatal, "closing records file", err)
	}
	return nil
}

// writeSummary replaces the target's summary atomically; a reader never
// sees a half-written digest.
func (w *Writer) writeSummary(dir string, result *session.ExtractionResult, stats Stats) error {
	summary := Summary{
		SessionID:  result.SessionID,
		Target:     result.Target,
		Type:       string(result.Type),
		Status:     string(result.Status),
		Counts:     result.Counts,
		Failures:   result.Failures,
		StartedAt:  result.StartedAt,
		Duration:   result.Duration.Round(time.Millisecond).String(),
		Written:    stats.Written,
		Skipped:    stats.Skipped,
		ExportedAt: time.Now(),
	}

	path := filepath.Join(dir, summaryFile)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errs.Wrap(errs.ClassFatal, "creating summary file", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.Wrap(errs.ClassFatal, "encoding summary", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.ClassFatal, "closing summary file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.ClassFatal, "replacing summary file", err)
	}
	return nil
}

// flatten maps a target reference onto a filesystem-safe directory name.
func flatten(target string) string {
	out := make([]rune, 0, len(target))
	for _, r := range target {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

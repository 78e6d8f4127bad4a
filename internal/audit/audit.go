// Package audit writes a JSONL trail of strikes, limit changes and health
// status changes.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/smykla-skalski/sendguard/pkg/config"
	"github.com/smykla-skalski/sendguard/pkg/logger"
)

const (
	auditFilePermissions = 0o600
	auditDirPermissions  = 0o700
	bytesPerMB           = 1024 * 1024

	// backupTimestampFormat names rotated files base.YYYYMMDD-HHMMSS.ext.
	backupTimestampFormat = "20060102-150405"
)

// Logger appends entries to the audit log, rotating it by size.
type Logger struct {
	mu     sync.Mutex
	config *config.AuditConfig
	logger logger.Logger

	logFile string

	now func() time.Time
}

// Option configures the Logger.
type Option func(*Logger)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Logger) {
		if log != nil {
			a.logger = log
		}
	}
}

// WithFile sets a custom audit log path.
func WithFile(path string) Option {
	return func(a *Logger) {
		if path != "" {
			a.logFile = path
		}
	}
}

// WithTimeFunc sets a custom time function for testing.
func WithTimeFunc(fn func() time.Time) Option {
	return func(a *Logger) {
		if fn != nil {
			a.now = fn
		}
	}
}

// New creates an audit logger.
func New(cfg *config.AuditConfig, opts ...Option) *Logger {
	a := &Logger{
		config:  cfg,
		logger:  logger.NewNoOpLogger(),
		logFile: cfg.GetLogFile(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Log appends an entry. Entries without an ID or timestamp get one.
func (a *Logger) Log(entry *Entry) error {
	if entry == nil {
		return nil
	}

	if !a.config.IsAuditEnabled() {
		return nil
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = a.now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshaling audit entry")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if rotateErr := a.rotateIfNeededLocked(); rotateErr != nil {
		a.logger.Error("failed to rotate audit log",
			"error", rotateErr.Error(),
		)
	}

	return a.appendLocked(data)
}

func (a *Logger) appendLocked(data []byte) error {
	path := a.Path()

	if err := os.MkdirAll(filepath.Dir(path), auditDirPermissions); err != nil {
		return errors.Wrap(err, "creating audit directory")
	}

	//nolint:gosec // G304: path is from config
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, auditFilePermissions)
	if err != nil {
		return errors.Wrap(err, "opening audit file")
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		_ = file.Close()

		return errors.Wrap(err, "writing audit entry")
	}

	return errors.Wrap(file.Close(), "closing audit file")
}

// Read returns every entry in the current log file, oldest first. Malformed
// lines are skipped. A missing file yields no entries.
func (a *Logger) Read() ([]*Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.Path()) //nolint:gosec // G304: path is from config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "opening audit file")
	}

	defer func() { _ = file.Close() }()

	var entries []*Entry

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			a.logger.Debug("skipping malformed audit entry", "error", err.Error())

			continue
		}

		entries = append(entries, &entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning audit file")
	}

	return entries, nil
}

// ReadSession returns the entries for one session.
func (a *Logger) ReadSession(sessionID string) ([]*Entry, error) {
	entries, err := a.Read()
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(entries, func(e *Entry) bool {
		return e.SessionID != sessionID
	}), nil
}

// Rotate moves the current log aside and prunes old backups.
func (a *Logger) Rotate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.rotateLocked()
}

// Path returns the resolved log file path.
func (a *Logger) Path() string {
	path := a.logFile
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

func (a *Logger) rotateIfNeededLocked() error {
	info, err := os.Stat(a.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return errors.Wrap(err, "checking audit file size")
	}

	limit := int64(a.config.GetMaxSizeMB()) * bytesPerMB
	if info.Size() < limit {
		return nil
	}

	a.logger.Debug("audit log exceeds max size, rotating",
		"size", humanize.IBytes(uint64(info.Size())),
	)

	return a.rotateLocked()
}

func (a *Logger) rotateLocked() error {
	path := a.Path()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	ext := filepath.Ext(path)
	backup := strings.TrimSuffix(path, ext) + "." + a.now().Format(backupTimestampFormat) + ext

	if err := os.Rename(path, backup); err != nil {
		return errors.Wrap(err, "rotating audit file")
	}

	a.logger.Debug("rotated audit log", "to", backup)

	return a.pruneBackupsLocked()
}

func (a *Logger) pruneBackupsLocked() error {
	backups, err := a.backups()
	if err != nil {
		return err
	}

	slices.Sort(backups)
	slices.Reverse(backups)

	for _, old := range backups[min(len(backups), a.config.GetMaxBackups()):] {
		if err := os.Remove(old); err != nil {
			a.logger.Error("failed to remove old backup", "path", old, "error", err.Error())

			continue
		}

		a.logger.Debug("removed old backup", "path", old)
	}

	return nil
}

// backups lists rotated files next to the log.
func (a *Logger) backups() ([]string, error) {
	path := a.Path()
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := filepath.Base(strings.TrimSuffix(path, ext))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "reading audit directory")
	}

	var backups []string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base+".") || !strings.HasSuffix(name, ext) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, base+"."), ext)
		if _, err := time.Parse(backupTimestampFormat, stamp); err == nil {
			backups = append(backups, filepath.Join(dir, name))
		}
	}

	return backups, nil
}

// Stats describes the audit log on disk.
type Stats struct {
	LogFile     string    `json:"log_file"`
	SizeBytes   int64     `json:"size_bytes"`
	EntryCount  int       `json:"entry_count"`
	BackupCount int       `json:"backup_count"`
	ModTime     time.Time `json:"mod_time"`
}

// FormatSize returns the size in human-readable form.
func (s *Stats) FormatSize() string {
	return humanize.IBytes(uint64(max(s.SizeBytes, 0)))
}

// Stats returns statistics about the audit log. Backups are counted even
// when the current file is missing.
func (a *Logger) Stats() (*Stats, error) {
	path := a.Path()
	stats := &Stats{LogFile: path}

	a.mu.Lock()
	backups, err := a.backups()
	a.mu.Unlock()

	if err != nil {
		return nil, err
	}

	stats.BackupCount = len(backups)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}

		return nil, errors.Wrap(err, "getting audit file info")
	}

	stats.SizeBytes = info.Size()
	stats.ModTime = info.ModTime()

	entries, err := a.Read()
	if err != nil {
		return nil, err
	}

	stats.EntryCount = len(entries)

	return stats, nil
}

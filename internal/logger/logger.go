package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level
type Level int

const (
	// DEBUG level for detailed debugging information
	DEBUG Level = iota
	// INFO level for informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
)

// FilePrefix is the name prefix of the daily log files
const FilePrefix = "ezaudio-"

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

// sink is the file state shared by a logger and its children
type sink struct {
	mu            sync.RWMutex
	level         Level
	file          *os.File
	loggers       map[Level]*log.Logger
	logDir        string
	currentDay    string
	retentionDays int
	stderr        bool
	now           func() time.Time
}

// Logger handles logging to file with daily rotation. Child loggers created
// with With share the file and level of their parent.
type Logger struct {
	s      *sink
	prefix string
}

// Config holds logger configuration
type Config struct {
	LogDir        string
	Level         Level
	RetentionDays int
	// Stderr mirrors every line to standard error
	Stderr bool
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}

	return Config{
		LogDir:        filepath.Join(configDir, "ezaudio", "logs"),
		Level:         INFO,
		RetentionDays: 7,
	}
}

// New creates a new logger
func New(config Config) (*Logger, error) {
	s := &sink{
		level:         config.Level,
		logDir:        config.LogDir,
		retentionDays: config.RetentionDays,
		stderr:        config.Stderr,
		now:           time.Now,
	}

	if err := s.rotateLog(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &Logger{s: s}, nil
}

// With returns a child logger whose lines are tagged with component
func (l *Logger) With(component string) *Logger {
	return &Logger{s: l.s, prefix: l.prefix + "[" + component + "] "}
}

// rotateLog opens the file for the current day if necessary
func (s *sink) rotateLog() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format("20060102")

	// Check if we need to rotate (new day)
	if s.currentDay == today && s.file != nil {
		return nil
	}

	// Close existing file
	if s.file != nil {
		s.file.Close()
	}

	// Create log directory if not exists
	if err := os.MkdirAll(s.logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create new log file
	filename := fmt.Sprintf("%s%s.log", FilePrefix, today)
	filePath := filepath.Join(s.logDir, filename)

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	s.file = file
	s.currentDay = today

	var out io.Writer = file
	if s.stderr {
		out = io.MultiWriter(file, os.Stderr)
	}

	// Create loggers
	s.loggers = make(map[Level]*log.Logger, 4)
	for _, level := range []Level{DEBUG, INFO, WARN, ERROR} {
		s.loggers[level] = log.New(out, "["+level.String()+"] ", log.LstdFlags)
	}

	// Clean old logs
	if err := s.cleanOldLogs(); err != nil {
		s.loggers[WARN].Printf("Failed to clean old logs: %v", err)
	}

	return nil
}

// cleanOldLogs deletes log files older than retentionDays
func (s *sink) cleanOldLogs() error {
	if s.retentionDays <= 0 {
		return nil
	}
	cutoffDate := s.now().AddDate(0, 0, -s.retentionDays)

	entries, err := os.ReadDir(s.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only our own daily files
		if !strings.HasPrefix(entry.Name(), FilePrefix) || filepath.Ext(entry.Name()) != ".log" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		// Delete if older than cutoff date
		if info.ModTime().Before(cutoffDate) {
			filePath := filepath.Join(s.logDir, entry.Name())
			if err := os.Remove(filePath); err != nil {
				// Continue even if we can't delete a file
				continue
			}
		}
	}

	return nil
}

// checkRotation checks if log rotation is needed and performs it
func (s *sink) checkRotation() {
	s.mu.RLock()
	currentDay := s.currentDay
	s.mu.RUnlock()

	today := s.now().Format("20060102")
	if currentDay != today {
		if err := s.rotateLog(); err != nil {
			// Can't log this error since logging is failing
			fmt.Fprintf(os.Stderr, "Failed to rotate log: %v\n", err)
		}
	}
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	s := l.s
	s.mu.RLock()
	enabled := s.level <= level
	s.mu.RUnlock()

	if !enabled {
		return
	}

	s.checkRotation()
	s.mu.RLock()
	lg := s.loggers[level]
	s.mu.RUnlock()
	if lg != nil {
		lg.Printf(l.prefix+format, v...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(DEBUG, format, v...)
}

// Info logs an informational message
func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(INFO, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logf(WARN, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(ERROR, format, v...)
}

// Close closes the log file
func (l *Logger) Close() error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if l.s.file != nil {
		err := l.s.file.Close()
		l.s.file = nil
		l.s.loggers = nil
		return err
	}
	return nil
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	l.s.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() Level {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	return l.s.level
}

// Dir returns the log directory
func (l *Logger) Dir() string {
	return l.s.logDir
}

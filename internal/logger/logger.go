package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Level lists supported log severities
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// ParseLevel maps a CLI/config string onto a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DEBUG
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// rotateThreshold is the log size, in bytes, past which Init gzips the
// previous run's log before opening a fresh one.
const rotateThreshold = 8 * 1024 * 1024

// Logger writes to file plus console
type Logger struct {
	mu          sync.Mutex
	fileLogger  *log.Logger // file output
	consoleLog  *log.Logger // console highlights
	level       Level
	logFile     *os.File
	logFilePath string
	tag         string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init creates the global logger. logFilePrefix names the run, e.g.
// "redis-data-transfer" or a host-derived identifier.
func Init(logDir string, level Level, logFilePrefix string) error {
	var initErr error
	once.Do(func() {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			initErr = fmt.Errorf("create log dir: %w", err)
			return
		}

		if logFilePrefix == "" {
			logFilePrefix = "redis-data-transfer"
		}
		logFileName := fmt.Sprintf("%s.log", logFilePrefix)
		logFilePath := filepath.Join(logDir, logFileName)

		if err := rotateIfLarge(logFilePath); err != nil {
			initErr = fmt.Errorf("rotate previous log: %w", err)
			return
		}

		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			initErr = fmt.Errorf("open log file: %w", err)
			return
		}

		fileLogger := log.New(logFile, "", 0)
		consoleLog := log.New(os.Stdout, "", 0)

		defaultLogger = &Logger{
			fileLogger:  fileLogger,
			consoleLog:  consoleLog,
			level:       level,
			logFile:     logFile,
			logFilePath: logFilePath,
			tag:         "redis-data-transfer",
		}
	})
	return initErr
}

// rotateIfLarge gzips an existing log file once it crosses rotateThreshold,
// leaving a timestamped .gz sibling and freeing the plain name for Init's
// fresh os.OpenFile call.
func rotateIfLarge(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < rotateThreshold {
		return nil
	}

	archivePath := fmt.Sprintf("%s.%s.gz", path, time.Now().Format("20060102T150405"))
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// Close shuts down the log file
func Close() error {
	if defaultLogger != nil && defaultLogger.logFile != nil {
		return defaultLogger.logFile.Close()
	}
	return nil
}

// GetLogFilePath returns the backing log file path
func GetLogFilePath() string {
	if defaultLogger != nil {
		return defaultLogger.logFilePath
	}
	return ""
}

func formatMessage(level Level, format string, args ...interface{}) string {
	timestamp := time.Now().Format("2006/01/02 15:04:05")
	levelStr := levelNames[level]
	message := fmt.Sprintf(format, args...)
	return fmt.Sprintf("%s [%s] %s", timestamp, levelStr, message)
}

func logToFile(level Level, format string, args ...interface{}) {
	if defaultLogger == nil {
		return
	}
	if level < defaultLogger.level {
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	message := formatMessage(level, format, args...)
	defaultLogger.fileLogger.Println(message)
}

func logToConsole(format string, args ...interface{}) {
	if defaultLogger == nil {
		fmt.Printf(format+"\n", args...)
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	timestamp := time.Now().Format("2006/01/02 15:04:05")
	message := fmt.Sprintf(format, args...)
	defaultLogger.consoleLog.Printf("%s [%s] %s", timestamp, defaultLogger.tag, message)
}

func logToBoth(level Level, format string, args ...interface{}) {
	logToFile(level, format, args...)
	logToConsole(format, args...)
}

// Debug logs debug messages (file only)
func Debug(format string, args ...interface{}) {
	logToFile(DEBUG, format, args...)
}

// Info logs info messages (file only)
func Info(format string, args ...interface{}) {
	logToFile(INFO, format, args...)
}

// Warn logs warnings (file + console)
func Warn(format string, args ...interface{}) {
	logToBoth(WARN, format, args...)
}

// Error logs errors (file + console)
func Error(format string, args ...interface{}) {
	logToBoth(ERROR, format, args...)
}

// Console prints status lines to console and mirrors to file
func Console(format string, args ...interface{}) {
	logToConsole(format, args...)
	logToFile(INFO, format, args...)
}

// Printf mimics log.Printf (file + console)
func Printf(format string, args ...interface{}) {
	logToBoth(INFO, format, args...)
}

// Println mimics log.Println (file + console)
func Println(args ...interface{}) {
	message := fmt.Sprint(args...)
	logToBoth(INFO, "%s", message)
}

// Writer returns an io.Writer compatible with the standard log package
func Writer() io.Writer {
	if defaultLogger != nil {
		return defaultLogger.logFile
	}
	return os.Stdout
}

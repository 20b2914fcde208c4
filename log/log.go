package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog   zerolog.Logger
	diagFile  *os.File
	crashFile *os.File
	logMu     sync.Mutex
	logReady  bool
	pid       int
	dir       string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: --logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: LOUDCTL_LOG_PATH environment variable
	if envPath := os.Getenv("LOUDCTL_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return defaultDir(runtime.GOOS, os.Getenv)
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error
	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

// CrashFile opens crash_log.txt for the runtime's fatal-error output. The
// file stays open until Close.
func CrashFile() (*os.File, error) {
	logMu.Lock()
	defer logMu.Unlock()
	if crashFile != nil {
		return crashFile, nil
	}
	if err := EnsureDir(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "crash_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(f, "%s\t[%d]\tsession start\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	crashFile = f
	return f, nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if crashFile != nil {
		crashFile.Close()
		crashFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

type SessionInfo struct {
	Sink       string
	Source     string
	TargetLUFS float64
	WindowS    float64
	SlewRate   float64
	HoldS      float64
	PauseS     float64
	Enabled    bool
}

func SessionStart(s SessionInfo) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("sink", s.Sink).
		Str("source", s.Source).
		Float64("target_lufs", s.TargetLUFS).
		Float64("window_s", s.WindowS).
		Float64("slew_db_s", s.SlewRate).
		Float64("hold_s", s.HoldS).
		Float64("pause_s", s.PauseS).
		Bool("enabled", s.Enabled).
		Msg("session_start")
}

func SessionEnd(actuations, overrides int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("actuations", actuations).
		Int("overrides", overrides).
		Msg("session_end")
}

func ModeChange(from, to string, estimateDB, volumeDB float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("from", from).
		Str("to", to).
		Float64("estimate_db", estimateDB).
		Float64("volume_db", volumeDB).
		Msg("mode_change")
}

func Actuation(fromDB, toDB, desiredDB float64) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Float64("from_db", fromDB).
		Float64("to_db", toDB).
		Float64("desired_db", desiredDB).
		Msg("actuation")
}

func ActuationFailed(toDB float64, err error) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Float64("to_db", toDB).
		Err(err).
		Msg("actuation_failed")
}

func ManualOverride(commandedDB, reportedDB float64, until time.Time) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("commanded_db", commandedDB).
		Float64("reported_db", reportedDB).
		Time("paused_until", until).
		Msg("manual_override")
}

func CaptureLost(err error) {
	if !logReady {
		return
	}
	diagLog.Warn().Err(err).Msg("capture_lost")
}

func CaptureRestored(source string, down time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("source", source).
		Dur("down", down).
		Msg("capture_restored")
}

func ConfigRejected(err error) {
	if !logReady {
		return
	}
	diagLog.Warn().Err(err).Msg("config_rejected")
}

func InvalidBlock(err error) {
	if !logReady {
		return
	}
	diagLog.Debug().Err(err).Msg("invalid_block")
}

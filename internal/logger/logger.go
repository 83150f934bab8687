// Package logger はJSON構造化ログの出力先とレベルを構成する。
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options はロガーの構成。
type Options struct {
	Level slog.Level
	// Dir が空でない場合、標準出力に加えて Dir/<Env>-YYYY-MM-DD.jsonl にも出力する。
	Dir string
	Env string
	Now func() time.Time
}

// ParseLevel はLOG_LEVELの値をslog.Levelに変換する。未知の値はinfoとして扱う。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer) *slog.Logger {
	return newJSONLogger(w, slog.LevelInfo)
}

// New はOptionsに従ってロガーを生成する。
// ファイル出力を有効にした場合、返されるio.Closerでファイルを閉じる。
func New(w io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	if w == nil {
		w = os.Stdout
	}
	if opts.Dir == "" {
		return newJSONLogger(w, opts.Level), nopCloser{}, nil
	}

	f, err := openLogFile(opts)
	if err != nil {
		return nil, nil, err
	}
	return newJSONLogger(io.MultiWriter(w, f), opts.Level), f, nil
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w))
}

// FileName は日付ごとのログファイル名を返す。
func FileName(env string, t time.Time) string {
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("%s-%s.jsonl", env, t.Format("2006-01-02"))
}

func newJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func openLogFile(opts Options) (*os.File, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(opts.Dir, FileName(opts.Env, now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

package obs

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger

	levelOnce sync.Once
	minLevel  int
)

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// Logger returns the shared structured logger used across the service.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

func threshold() int {
	levelOnce.Do(func() {
		lvl := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
		v, ok := levels[lvl]
		if !ok {
			v = levels["info"]
		}
		minLevel = v
	})
	return minLevel
}

// Log emits a structured JSON line with the given level, message and fields.
// Entries below LOG_LEVEL are dropped.
func Log(level, msg string, fields map[string]any) {
	lv, ok := levels[level]
	if !ok {
		lv = levels["info"]
	}
	if lv < threshold() {
		return
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		if _, reserved := entry[k]; !reserved {
			entry[k] = v
		}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}

// Debug logs at debug level.
func Debug(msg string, fields map[string]any) { Log("debug", msg, fields) }

// Info logs at info level.
func Info(msg string, fields map[string]any) { Log("info", msg, fields) }

// Warn logs at warn level.
func Warn(msg string, fields map[string]any) { Log("warn", msg, fields) }

// Error logs at error level.
func Error(msg string, fields map[string]any) { Log("error", msg, fields) }

package httpapi

import (
	"bytes"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// loggingLineWriter logs every complete non-empty line written to it. It is
// teed next to the response writer of streamed completions.
type loggingLineWriter struct {
	buf []byte
}

func (lw *loggingLineWriter) Write(p []byte) (int, error) {
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		if line := string(lw.buf[:idx]); line != "" {
			if zlog != nil {
				zlog.Debug().Str("line", line).Msg("stream>")
			} else {
				log.Printf("stream> %s", line)
			}
		}
		lw.buf = lw.buf[idx+1:]
	}
	return len(p), nil
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("TEXTGEND_LOG_LEVEL"))

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// requestLog emits the start/end lines of one API call at the level chosen
// for that request.
type requestLog struct {
	r     *http.Request
	lvl   LogLevel
	op    string
	start time.Time
}

func newRequestLog(r *http.Request, op string) *requestLog {
	return &requestLog{r: r, lvl: requestLogLevel(r), op: op, start: time.Now()}
}

func (l *requestLog) begin(stream bool) {
	if l.lvl < LevelInfo {
		return
	}
	if zlog == nil {
		log.Printf("%s start path=%s stream=%t", l.op, l.r.URL.Path, stream)
		return
	}
	z := zlog.Info().Str("path", l.r.URL.Path).Bool("stream", stream)
	if rid := middleware.GetReqID(l.r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg(l.op + " start")
}

// end logs the outcome; errors are logged from LevelError, successes from LevelInfo.
func (l *requestLog) end(status int, err error) {
	if l.lvl < LevelError || (err == nil && l.lvl < LevelInfo) {
		return
	}
	dur := time.Since(l.start)
	if zlog == nil {
		log.Printf("%s end status=%d dur=%s err=%v", l.op, status, dur, err)
		return
	}
	z := zlog.Info()
	if err != nil {
		z = zlog.Error().Err(err)
	}
	z = z.Int("status", status).Dur("dur", dur)
	if rid := middleware.GetReqID(l.r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg(l.op + " end")
}

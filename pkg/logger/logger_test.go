package logger

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robtot/skeleton-go/pkg/model"
)

var lineRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z \[(debug|info|warn|error)\] (.*)$`)

// syncBuffer guards a bytes.Buffer for tests that log from many goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(level model.LogLevel) (*Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return New(buf, level), buf
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestLogger_LineFormat(t *testing.T) {
	l, buf := newTestLogger(model.LogLevelDebug)

	l.Debug("d %d", 1)
	l.Info("hello %s", "world")
	l.Warn("w")
	l.Error("e: %s", errors.New("boom"))

	got := lines(buf.String())
	if len(got) != 4 {
		t.Fatalf("Expected 4 lines, got %d: %q", len(got), got)
	}

	want := []struct {
		level, msg string
	}{
		{"debug", "d 1"},
		{"info", "hello world"},
		{"warn", "w"},
		{"error", "e: [Error: boom]"},
	}
	for i, w := range want {
		m := lineRe.FindStringSubmatch(got[i])
		if m == nil {
			t.Fatalf("Line %d does not match log format: %q", i, got[i])
		}
		if m[1] != w.level || m[2] != w.msg {
			t.Errorf("Line %d: expected [%s] %q, got [%s] %q", i, w.level, w.msg, m[1], m[2])
		}
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	l, buf := newTestLogger(model.LogLevelWarn)

	l.Debug("dropped")
	l.Info("dropped")
	l.Response(model.Request{Method: "GET", Path: "/"}, 200, nil)
	l.Warn("kept")

	got := lines(buf.String())
	if len(got) != 1 || !strings.HasSuffix(got[0], "[warn] kept") {
		t.Errorf("Expected only the warn line, got %q", got)
	}
}

func TestLogger_ResponseIsNotReformatted(t *testing.T) {
	l, buf := newTestLogger(model.LogLevelDebug)

	req := model.Request{Method: "GET", Path: "/%s", Body: map[string]any{}}
	l.Response(req, 200, map[string]string{"msg": "100%d"})

	got := lines(buf.String())
	if len(got) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(got))
	}
	want := "[info] Responding to request GET url: /%s body={} with 200: { msg: '100%d' }"
	if !strings.HasSuffix(got[0], want) {
		t.Errorf("Expected suffix %q, got %q", want, got[0])
	}
}

func TestLogger_ConcurrentLinesStayWhole(t *testing.T) {
	l, buf := newTestLogger(model.LogLevelDebug)

	const workers, perWorker = 50, 20
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Info("worker %d line %d %s", w, i, strings.Repeat("x", 256))
			}
		}(w)
	}
	wg.Wait()

	got := lines(buf.String())
	if len(got) != workers*perWorker {
		t.Fatalf("Expected %d lines, got %d", workers*perWorker, len(got))
	}
	for _, line := range got {
		if !lineRe.MatchString(line) {
			t.Fatalf("Interleaved or malformed line: %q", line)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("sink closed")
}

func TestLogger_FailingSinkDoesNotPanic(t *testing.T) {
	l := New(failingWriter{}, model.LogLevelDebug)
	l.Info("still fine")
	l.Monitor("m", "f").Done("ok")
}

func TestLogger_SlogAttrs(t *testing.T) {
	l, buf := newTestLogger(model.LogLevelDebug)

	l.Slog().With("request_id", "abc").Info("with attrs", "status", 200)
	l.Slog().WithGroup("http").Info("grouped", "method", "GET")

	got := lines(buf.String())
	if len(got) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(got))
	}
	if !strings.HasSuffix(got[0], "[info] with attrs request_id=abc status=200") {
		t.Errorf("Unexpected attrs rendering: %q", got[0])
	}
	if !strings.HasSuffix(got[1], "[info] grouped http.method=GET") {
		t.Errorf("Unexpected group rendering: %q", got[1])
	}
}

func TestLogger_UsesInjectedClock(t *testing.T) {
	l, buf := newTestLogger(model.LogLevelDebug)
	l.now = func() time.Time { return time.Date(2020, 5, 6, 7, 8, 9, 10_000_000, time.UTC) }

	l.Info("tick")

	want := "2020-05-06T07:08:09.010Z [info] tick\n"
	if got := buf.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerTeesToLogstash(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	lines := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	w, err := NewLogstashWriter(ln.Addr().String())
	if err != nil {
		t.Fatalf("NewLogstashWriter: %v", err)
	}
	defer w.Close()

	logger := New("production", "info", "json", w)
	logger.Info("account created")

	select {
	case line := <-lines:
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("expected json line, got %q", line)
		}
		if entry["msg"] != "account created" {
			t.Fatalf("unexpected entry %v", entry)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for logstash line")
	}
}

func TestLogstashWriterDropsWhileUnreachable(t *testing.T) {
	w, _ := NewLogstashWriter("unreachable:1", WithRetryInterval(time.Hour))
	dials := 0
	w.dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	for i := 0; i < 3; i++ {
		n, err := w.Write([]byte("line"))
		if err != nil || n != 4 {
			t.Fatalf("expected silent drop, got n=%d err=%v", n, err)
		}
	}
	if dials != 1 {
		t.Fatalf("expected a single dial during cooldown, got %d", dials)
	}
	if w.Dropped() != 3 {
		t.Fatalf("expected 3 dropped lines, got %d", w.Dropped())
	}

	_ = w.Close()
	if _, err := w.Write([]byte("late")); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestNewLogstashWriterRequiresAddress(t *testing.T) {
	if _, err := NewLogstashWriter("  "); err == nil {
		t.Fatal("expected error for empty address")
	}
}

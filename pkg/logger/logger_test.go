package logger

import (
	"reflect"
	"testing"
)

type recordingLogger struct {
	lines []string
	kv    [][]any
}

func (r *recordingLogger) record(level, msg string, keyvals []any) {
	r.lines = append(r.lines, level+":"+msg)
	r.kv = append(r.kv, keyvals)
}

func (r *recordingLogger) Log(m string, kv ...any)   { r.record("log", m, kv) }
func (r *recordingLogger) Debug(m string, kv ...any) { r.record("debug", m, kv) }
func (r *recordingLogger) Info(m string, kv ...any)  { r.record("info", m, kv) }
func (r *recordingLogger) Warn(m string, kv ...any)  { r.record("warn", m, kv) }
func (r *recordingLogger) Error(m string, kv ...any) { r.record("error", m, kv) }
func (r *recordingLogger) Fatal(m string, kv ...any) { r.record("fatal", m, kv) }

func TestDispatchToAllInstances(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	Init(a, b)
	t.Cleanup(func() { Init() })

	Info("hello", "k", 1)
	Log("plain", "file", "a.txt")
	Warn("careful")

	want := []string{"info:hello", "log:plain", "warn:careful"}
	for _, r := range []*recordingLogger{a, b} {
		if !reflect.DeepEqual(r.lines, want) {
			t.Errorf("lines = %#v, want %#v", r.lines, want)
		}
		if !reflect.DeepEqual(r.kv[1], []any{"file", "a.txt"}) {
			t.Errorf("Log keyvals = %#v, want file/a.txt", r.kv[1])
		}
	}
}

func TestNoInstances(t *testing.T) {
	Init()
	// must not panic
	Info("nothing")
	Error("nothing")
}

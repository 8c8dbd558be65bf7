package logx

import "testing"

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": LevelDebug,
		"DEBUG": LevelDebug,
		"warn":  LevelWarn,
		"error": LevelError,
		"none":  LevelNone,
		"info":  LevelInfo,
		"":      LevelInfo,
		"huh":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerDoesNotPanicAtAnyLevel(t *testing.T) {
	for _, lvl := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelNone} {
		l := New(lvl)
		l.Debugf("x=%d", 1)
		l.Infof("x=%d", 1)
		l.Warnf("x=%d", 1)
		l.Errorf("x=%d", 1)
	}
}

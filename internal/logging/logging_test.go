package logging

import "testing"

func TestLoggers(t *testing.T) {
	for _, l := range []*Logger{Nop(), NewLogger(false), NewLogger(true)} {
		child := l.Named("engine")
		child.Debugw("debug line", "frame", 1)
		child.Infow("info line", "frames", 20)
		l.Sync()
	}
}

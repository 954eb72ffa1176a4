package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("noiser")

	logger.Debugw("skipping cycle", "reason", "no frame")
	sub.Warnf("dropping frame %d", 3)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[0].ContextMap()["reason"], test.ShouldEqual, "no frame")
	test.That(t, entries[1].Message, test.ShouldEqual, "dropping frame 3")
	test.That(t, entries[1].LoggerName, test.ShouldContainSubstring, "noiser")
}

func TestGlobal(t *testing.T) {
	orig := Global()
	defer ReplaceGlobal(orig)

	logger := NewTestLogger(t)
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
	test.That(t, NewLoggerConfig().Level.Level(), test.ShouldEqual, zapcore.InfoLevel)
}

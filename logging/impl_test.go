package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestConsoleOutputFormat(t *testing.T) {
	// A logger object that will write to the `notStdout` buffer.
	notStdout := &bytes.Buffer{}
	logger := &impl{
		name:      "impl",
		level:     NewAtomicLevelAt(DEBUG),
		inUTC:     true,
		appenders: []Appender{NewWriterAppender(notStdout)},
	}

	logger.Info("impl Info log")
	line, err := notStdout.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	parts := strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	test.That(t, len(parts), test.ShouldEqual, 5)
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "impl")
	test.That(t, strings.HasPrefix(parts[3], "logging/impl_test.go:"), test.ShouldBeTrue)
	test.That(t, parts[4], test.ShouldEqual, "impl Info log")

	logger.Debugw("trials", "count", 20, "object", "egg")
	line, err = notStdout.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	parts = strings.Split(strings.TrimSuffix(line, "\n"), "\t")
	test.That(t, parts[len(parts)-1], test.ShouldEqual, `{"count":20,"object":"egg"}`)

	logger.Warnw("odd", "dangling")
	line, err = notStdout.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	test.That(t, line, test.ShouldContainSubstring, "unpaired log key")
}

func TestLevels(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := &impl{"", NewAtomicLevelAt(WARN), false, []Appender{NewWriterAppender(notStdout)}}
	logger.Info("dropped")
	logger.Debugf("dropped %d", 1)
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Warnf("kept %d", 1)
	test.That(t, notStdout.String(), test.ShouldContainSubstring, "kept 1")

	level, err := LevelFromString("ERROR")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ERROR)
	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSubloggerAndObserver(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("sampling")
	sub.Debugw("no feasible placement", "trials", 20)
	test.That(t, observed.FilterMessage("no feasible placement").Len(), test.ShouldEqual, 1)
	entry := observed.All()[0]
	test.That(t, entry.LoggerName, test.ShouldEqual, "sampling")
	test.That(t, entry.ContextMap()["trials"], test.ShouldEqual, int64(20))
	test.That(t, logger.Sync(), test.ShouldBeNil)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tamp.log")
	appender, closer := NewFileAppender(path)
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)
	logger.Infow("placed", "object", "egg")
	test.That(t, closer.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "placed")
	test.That(t, string(contents), test.ShouldContainSubstring, `"object":"egg"`)
}

package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

// SetTestMode redirects the root logger into the test log for the lifetime of
// the test.
func SetTestMode(t testing.TB) {
	prev := logrus.StandardLogger().Out
	logrus.SetOutput(testWriter{t})
	t.Cleanup(func() {
		logrus.SetOutput(prev)
	})
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

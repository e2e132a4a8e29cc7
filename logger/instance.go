package logger

import (
	"github.com/sirupsen/logrus"
)

// Instance is the logging handle embedded by components that log. Entries
// are tagged with the owning module name.
type Instance struct {
	Log *logrus.Entry
}

func New(name ...string) Instance {
	if len(name) == 0 {
		return Instance{
			Log: logrus.NewEntry(logrus.StandardLogger()),
		}
	}
	return Instance{
		Log: logrus.WithField("module", name[0]),
	}
}

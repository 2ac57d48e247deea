package engine

import (
	"github.com/sirupsen/logrus"
)

// Logger is the capability set the engine logs through. Testf is the
// dry-run channel and only prints for dry runs.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	Testf(format string, args ...any)
}

// ProductionLogger writes to logrus and drops Testf lines
type ProductionLogger struct {
	entry *logrus.Entry
}

// NewProductionLogger creates a logger for live runs
func NewProductionLogger(log *logrus.Logger) *ProductionLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProductionLogger{entry: logrus.NewEntry(log).WithField("component", "engine")}
}

func (l *ProductionLogger) Infof(format string, args ...any) { l.entry.Infof(format, args...) }
func (l *ProductionLogger) Warnf(format string, args ...any) { l.entry.Warnf(format, args...) }

func (l *ProductionLogger) Errorf(err error, format string, args ...any) {
	if err != nil {
		l.entry.WithError(err).Errorf(format, args...)
		return
	}
	l.entry.Errorf(format, args...)
}

func (l *ProductionLogger) Testf(string, ...any) {}

// DryRunLogger tags every line with mode=dry_run and prints Testf
type DryRunLogger struct {
	entry *logrus.Entry
}

// NewDryRunLogger creates a logger for dry runs
func NewDryRunLogger(log *logrus.Logger) *DryRunLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DryRunLogger{entry: logrus.NewEntry(log).WithFields(logrus.Fields{
		"component": "engine",
		"mode":      "dry_run",
	})}
}

func (l *DryRunLogger) Infof(format string, args ...any) { l.entry.Infof(format, args...) }
func (l *DryRunLogger) Warnf(format string, args ...any) { l.entry.Warnf(format, args...) }

func (l *DryRunLogger) Errorf(err error, format string, args ...any) {
	if err != nil {
		l.entry.WithError(err).Errorf(format, args...)
		return
	}
	l.entry.Errorf(format, args...)
}

func (l *DryRunLogger) Testf(format string, args ...any) {
	l.entry.WithField("channel", "test").Infof(format, args...)
}

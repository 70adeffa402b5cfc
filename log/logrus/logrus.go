package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/redikit"
)

type Logger struct{ L *logrus.Logger }

var _ redikit.Logger = Logger{}

func (l Logger) Debug(msg string, f redikit.Fields) { l.L.WithFields(lf(f)).Debug(msg) }
func (l Logger) Info(msg string, f redikit.Fields)  { l.L.WithFields(lf(f)).Info(msg) }
func (l Logger) Warn(msg string, f redikit.Fields)  { l.L.WithFields(lf(f)).Warn(msg) }
func (l Logger) Error(msg string, f redikit.Fields) { l.L.WithFields(lf(f)).Error(msg) }

func lf(f redikit.Fields) logrus.Fields {
	if len(f) == 0 {
		return nil
	}
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

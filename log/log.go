// Package log is a thin structured-logging wrapper over logrus. Calls
// take an optional leading context.Context (carrying fields stashed by
// NewContext), a message, and then alternating key/value pairs — the
// same shape the persistence layer already uses.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

type ctxKey struct{}

// NewContext returns a context carrying additional fields that every
// subsequent log call made with it will include.
func NewContext(ctx context.Context, keyvals ...interface{}) context.Context {
	fields := fieldsFrom(ctx)
	merged := logrus.Fields{}
	for k, v := range fields {
		merged[k] = v
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		if k, ok := keyvals[i].(string); ok {
			merged[k] = keyvals[i+1]
		}
	}
	return context.WithValue(ctx, ctxKey{}, merged)
}

func fieldsFrom(ctx context.Context) logrus.Fields {
	if ctx == nil {
		return logrus.Fields{}
	}
	if f, ok := ctx.Value(ctxKey{}).(logrus.Fields); ok {
		return f
	}
	return logrus.Fields{}
}

// SetLevel sets the minimum level logged ("debug", "info", "warn", "error").
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// SetJSONFormat switches the output encoder; text (the default) is a
// line-oriented progress sink, matching a batch run's synchronous stderr
// output.
func SetJSONFormat(json bool) {
	if json {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func entry(args []interface{}) (*logrus.Entry, string, []interface{}) {
	e := logrus.NewEntry(base)
	if len(args) > 0 {
		if ctx, ok := args[0].(context.Context); ok {
			e = e.WithFields(fieldsFrom(ctx))
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return e, "", nil
	}
	msg, _ := args[0].(string)
	return e, msg, args[1:]
}

func withKeyvals(e *logrus.Entry, rest []interface{}) *logrus.Entry {
	for i := 0; i+1 < len(rest); i += 2 {
		k, ok := rest[i].(string)
		if !ok {
			continue
		}
		e = e.WithField(k, rest[i+1])
	}
	if len(rest)%2 == 1 {
		if err, ok := rest[len(rest)-1].(error); ok {
			e = e.WithError(err)
		}
	}
	return e
}

func Debug(args ...interface{}) {
	e, msg, rest := entry(args)
	withKeyvals(e, rest).Debug(msg)
}

func Info(args ...interface{}) {
	e, msg, rest := entry(args)
	withKeyvals(e, rest).Info(msg)
}

func Warn(args ...interface{}) {
	e, msg, rest := entry(args)
	withKeyvals(e, rest).Warn(msg)
}

func Error(args ...interface{}) {
	e, msg, rest := entry(args)
	withKeyvals(e, rest).Error(msg)
}

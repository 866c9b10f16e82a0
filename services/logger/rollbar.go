package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/apsas/core"
)

// RollbarLogger reports to Rollbar and mirrors every entry to a std logger.
// The extras of an entry are its own maps merged over the fields of the logger.
type RollbarLogger struct {
	std    *log.Logger
	fields map[string]interface{}
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// With returns a logger adding fields to the extras of every entry.
func (l *RollbarLogger) With(fields map[string]interface{}) *RollbarLogger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &RollbarLogger{std: l.std, fields: merged}
}

// prepare puts msg first, then the context args, then a single extras map.
// Rollbar only keeps one extras map, so every map arg is merged into it,
// along with the resource and status of upstream errors. nil args are dropped.
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	newArgs := make([]interface{}, 0, len(args)+2)
	newArgs = append(newArgs, msg)

	extras := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		extras[k] = v
	}
	for _, arg := range args {
		switch arg := arg.(type) {
		case nil:
		case map[string]interface{}:
			for k, v := range arg {
				extras[k] = v
			}
		case error:
			var uerr *core.UpstreamError
			if pkgerrors.As(arg, &uerr) {
				extras["upstreamResource"] = uerr.Resource
				if uerr.StatusCode > 0 {
					extras["upstreamStatus"] = uerr.StatusCode
				}
			}
			newArgs = append(newArgs, arg)
		default:
			newArgs = append(newArgs, arg)
		}
	}
	if len(extras) > 0 {
		newArgs = append(newArgs, extras)
	}
	return newArgs
}

func (l *RollbarLogger) print(args []interface{}) {
	l.std.Println(args[0])
	for _, arg := range args[1:] {
		if extras, ok := arg.(map[string]interface{}); ok {
			l.std.Println(formatExtras(extras))
			continue
		}
		l.std.Printf("%+v\n", arg)
	}
}

// formatExtras renders extras as key=value pairs sorted by key.
func formatExtras(extras map[string]interface{}) string {
	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, extras[k]))
	}
	return strings.Join(pairs, " ")
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	entry := l.prepare(msg, args)
	rollbar.Debug(entry...)
	l.print(entry)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	entry := l.prepare(msg, args)
	rollbar.Info(entry...)
	l.print(entry)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	entry := l.prepare(msg, args)
	rollbar.Warning(entry...)
	l.print(entry)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	entry := l.prepare(msg, args)
	rollbar.Error(entry...)
	l.print(entry)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	entry := l.prepare(msg, args)
	rollbar.Critical(entry...)
	l.print(entry)
	l.std.Fatal(msg)
}

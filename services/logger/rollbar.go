package logsvc

import (
	"fmt"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// RollbarLogger reports to rollbar and mirrors every entry on a std logger.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil) // interface compliance check

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close flushes the pending rollbar items.
func (l *RollbarLogger) Close() {
	rollbar.Close()
}

// prepare turns args into rollbar args.
// expected fmt: msg | error, map[string]interface{}, user.User, *user.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var person *user.User
	extras := make(map[string]interface{})
	out := make([]interface{}, 0, len(args)+2)
	out = append(out, msg)

	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if person == nil {
				usr := a
				person = &usr
			}
		case *user.User:
			if person == nil && a != nil {
				person = a
			}
		case map[string]interface{}:
			for k, v := range a {
				extras[k] = v
			}
		case *core.StoreError:
			extras["store_op"] = a.Op
			out = append(out, a)
		default:
			out = append(out, arg)
		}
	}

	if person != nil {
		rollbar.SetPerson(person.ID, person.Name, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	if len(extras) > 0 {
		out = append(out, extras)
	}
	return out
}

func (l *RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			l.std.Printf("  user: %s <%s>", a.ID, a.Email)
		case *user.User:
			if a != nil {
				l.std.Printf("  user: %s <%s>", a.ID, a.Email)
			}
		default:
			l.std.Println("  " + fmt.Sprintf("%+v", arg))
		}
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	if !l.debug {
		return
	}
	rollbar.Debug(l.prepare(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}

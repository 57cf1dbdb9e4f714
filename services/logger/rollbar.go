package logsvc

import (
	"fmt"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/censo/core"
)

// NewZap returns the console logger: human readable in debug, JSON otherwise.
func NewZap(conf *core.Config) (*zap.Logger, error) {
	if conf.TestMode {
		return zap.NewNop(), nil
	}
	if conf.Debug {
		zc := zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zc.Build(zap.AddCallerSkip(2))
	}
	return zap.NewProduction(zap.AddCallerSkip(2))
}

// RollbarLogger reports events to rollbar (when enabled) and prints them through zap.
type RollbarLogger struct {
	log *zap.SugaredLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(log *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(!conf.Debug && conf.RollbarToken != "")
	return &RollbarLogger{log: log.Sugar()}
}

// expected fmt: msg | error, map[string]interface{}, core.Person
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var personSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set logged in admin
		if p, ok := arg.(core.Person); ok {
			if !personSet { // only set one Person
				rollbar.SetPerson(p.ID, p.Username, p.Email)
				personSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

// fields turns the logger args into zap key-value pairs.
func (l RollbarLogger) fields(args []interface{}) []interface{} {
	kv := make([]interface{}, 0, 2*len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case error:
			kv = append(kv, "error", fmt.Sprintf("%+v", v))
		case map[string]interface{}:
			for k, val := range v {
				kv = append(kv, k, val)
			}
		case core.Person:
			kv = append(kv, "admin", v.Username)
		default:
			kv = append(kv, fmt.Sprintf("arg%d", i), v)
		}
	}
	return kv
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.log.Debugw(msg, l.fields(args)...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.log.Infow(msg, l.fields(args)...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.log.Warnw(msg, l.fields(args)...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.log.Errorw(msg, l.fields(args)...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	rollbar.Wait()
	l.log.Fatalw(msg, l.fields(args)...)
}

// Sync flushes the pending reports.
func (l RollbarLogger) Sync() {
	rollbar.Wait()
	_ = l.log.Sync()
}

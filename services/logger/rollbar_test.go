package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/censo/core"
)

func TestRollbarLogger(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	l := NewRollbarLogger(zap.New(obs), &core.Config{Debug: true})

	l.Info("admin logged in", core.Person{Username: "admin"})
	l.Error("saving submission", errors.New("disk full"), map[string]interface{}{"inep": "23101495"})

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "admin logged in", entries[0].Message)
		assert.Equal(t, "admin", entries[0].ContextMap()["admin"])

		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
		assert.Equal(t, "23101495", entries[1].ContextMap()["inep"])
		assert.Contains(t, entries[1].ContextMap()["error"], "disk full")
	}
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := RollbarLogger{}
	err := errors.New("boom")
	args := l.prepare("msg", []interface{}{err, core.Person{ID: "1"}, core.Person{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", err}, args)
}

package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/user"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	conf := &core.Config{Env: "TEST", Debug: true}
	return NewRollbarLogger(log.New(buf, "", 0), conf)
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := newTestLogger(new(bytes.Buffer))
	err := errors.New("boom")
	extras := map[string]interface{}{"student_id": "CS2024-0001"}
	usr := user.User{ID: "u1", Name: "Registrar", Email: "reg@example.com"}

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{"no args", nil, []interface{}{"msg"}},
		{"error and extras", []interface{}{err, extras}, []interface{}{"msg", err, extras}},
		{"user is stripped", []interface{}{err, usr}, []interface{}{"msg", err}},
		{"user pointer is stripped", []interface{}{&usr, extras}, []interface{}{"msg", extras}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, l.prepare("msg", tc.args))
		})
	}
}

func TestRollbarLogger_print(t *testing.T) {
	buf := new(bytes.Buffer)
	l := newTestLogger(buf)

	l.Warn("billing failed", errors.New("no fee"))

	require.Contains(t, buf.String(), "billing failed\n")
	assert.Contains(t, buf.String(), "no fee")
}

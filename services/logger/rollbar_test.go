package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/whenitsdone1/capstone2024/core"
)

func TestRollbarLoggerPrintsLocally(t *testing.T) {
	buf := new(bytes.Buffer)
	conf := core.NewTestConfig()
	l := NewRollbarLogger(log.New(buf, "", 0), conf)
	l.Enable(true) // no token: stays off

	l.Info("created collection Milestone_1")
	l.Error("listing records", errors.New("backend responded 503"), core.LogPerson{ID: "1", Email: "jo@uni.edu.au"})

	out := buf.String()
	assert.Contains(t, out, "[INFO] created collection Milestone_1")
	assert.Contains(t, out, "[ERROR] listing records")
	assert.Contains(t, out, "backend responded 503")
	assert.NotContains(t, out, "jo@uni.edu.au")
}

package pocketbase

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/whenitsdone1/capstone2024/core"
)

// AuthLog records authentication outcomes. The first success is logged once per process;
// failures are always logged.
type AuthLog struct {
	logger    core.Logger
	once      sync.Once
	successes int64
	failures  int64
}

func NewAuthLog(logger core.Logger) *AuthLog {
	return &AuthLog{logger: logger}
}

func (a *AuthLog) succeeded() {
	atomic.AddInt64(&a.successes, 1)
	a.once.Do(func() {
		a.logger.Info("Successfully authenticated with the record backend.")
	})
}

func (a *AuthLog) failed(msg string, err error) {
	atomic.AddInt64(&a.failures, 1)
	if err != nil {
		a.logger.Error(fmt.Sprintf("backend authentication: %s", msg), err)
		return
	}
	a.logger.Error(fmt.Sprintf("backend authentication: %s", msg))
}

func (a *AuthLog) Successes() int64 { return atomic.LoadInt64(&a.successes) }
func (a *AuthLog) Failures() int64  { return atomic.LoadInt64(&a.failures) }

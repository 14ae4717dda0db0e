package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/whenitsdone1/capstone2024/assets"
	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
	"github.com/whenitsdone1/capstone2024/services/clock"
	emailsvc "github.com/whenitsdone1/capstone2024/services/email"
	logsvc "github.com/whenitsdone1/capstone2024/services/logger"
	inmemdb "github.com/whenitsdone1/capstone2024/storage/inmem"
)

// Env bundles the collaborators of a milestone.Service wired for tests.
type Env struct {
	Conf   *core.Config
	Logger core.Logger
	DB     *inmemdb.DB
	Mail   *emailsvc.ConsoleServiceMock
	Svc    milestone.Service
	Today  time.Time
}

// NewLogger returns a logger writing nowhere, with Rollbar disabled.
func NewLogger() core.Logger {
	conf := core.NewTestConfig()
	l := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	l.Enable(false)
	return l
}

// Date parses "YYYY-MM-DD" or fails the test.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("Date(%q): %v", s, err)
	}
	return d
}

// NewEnv builds a service over an empty in-memory backend whose clock is fixed at today ("YYYY-MM-DD").
func NewEnv(t *testing.T, today string) *Env {
	t.Helper()
	conf := core.NewTestConfig()
	logger := NewLogger()
	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)

	db := inmemdb.NewDB(conf.Backend.AdminIdentity, conf.Backend.AdminPassword)
	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	d := Date(t, today)
	svc := milestone.NewServiceMock(db, clock.Fixed{Date: d}, mail, logger, conf)

	return &Env{
		Conf:   conf,
		Logger: logger,
		DB:     db,
		Mail:   mail,
		Svc:    svc,
		Today:  d,
	}
}

// CreateRecord submits p and fails the test on error.
func CreateRecord(t *testing.T, svc milestone.Service, p milestone.Payload) (string, milestone.ID) {
	t.Helper()
	id, m, err := svc.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return id, m
}

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core/milestone"
	"github.com/whenitsdone1/capstone2024/tests"
)

const today = "2024-10-01"

func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t, today)
	out := new(bytes.Buffer)

	// start CLI
	return &commandLine{
		conf:    env.Conf,
		logger:  env.Logger,
		backend: env.DB,
		credentials: func(identity, password string) (milestone.Backend, error) {
			return env.DB.WithCredentials(identity, password), nil
		},
		svc: env.Svc,
		out: out,
	}, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantAnyErr bool
	wantOut    string
	extra      interface{}
}

func runCliTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			if err != nil {
				if tt.wantErr != nil {
					if errors.Cause(err) != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else if !tt.wantAnyErr {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
				return
			}
			if tt.wantErr != nil || tt.wantErrStr != "" || tt.wantAnyErr {
				t.Errorf("cli.run() error = nil, want an error")
			}
			if tt.wantOut != "" && out.String() != tt.wantOut {
				t.Errorf("cli.run() output = %q, wantOut %q", out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)

	runCliTests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
}

func Test_commandLine_provision(t *testing.T) {
	cli, env, out := setup(t)

	runCliTests(t, cli, out, []cliTest{
		{name: "provision", args: []string{"provision"}, wantOut: "collections are up to date\n"},
		{name: "provision again", args: []string{"provision"}, wantOut: "collections are up to date\n"},
	})

	sess, err := env.DB.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}
	cols, err := sess.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("ListCollections() failed: %v", err)
	}
	if len(cols) != len(milestone.All) {
		t.Errorf("got %d collections; want %d", len(cols), len(milestone.All))
	}
}

func Test_commandLine_health(t *testing.T) {
	cli, env, out := setup(t)

	runCliTests(t, cli, out, []cliTest{
		{name: "healthy", args: []string{"health", "-retries", "1"}, wantOut: "backend is healthy\n"},
	})

	env.DB.SetDown(true)
	runCliTests(t, cli, out, []cliTest{
		{
			name: "down", args: []string{"health", "-retries", "2", "-delay", "1ms"},
			wantErrStr: "backend not healthy after 2 attempts: backend responded 503 Service Unavailable: backend is down",
		},
	})
}

func Test_commandLine_resolve(t *testing.T) {
	cli, _, out := setup(t)

	runCliTests(t, cli, out, []cliTest{
		{name: "no date", args: []string{"resolve"}, wantErr: errHelp},
		{name: "term", args: []string{"resolve", "-date", "2024-09-20"}, wantOut: "Milestone_2\n"},
		{name: "semester", args: []string{"resolve", "-date", "2024-08-12", "-semester"}, wantOut: "Milestone_3\n"},
		{name: "outside windows", args: []string{"resolve", "-date", "2024-08-12"}, wantOut: "Milestone_1\n"},
		{name: "bad date", args: []string{"resolve", "-date", "12/08/2024"}, wantErrStr: "Invalid date format"},
	})
}

func Test_commandLine_checkAuth(t *testing.T) {
	cli, env, out := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"checkauth"}, wantErr: errHelp},
		{name: "identity but no password", args: []string{"checkauth", "-identity", env.Conf.Backend.AdminIdentity}, wantErr: errHelp},
		{
			name: "wrong password", args: []string{"checkauth", "-identity", env.Conf.Backend.AdminIdentity},
			extra: extra{pwd: "lol"}, wantErr: milestone.ErrAuthentication,
		},
		{
			name: "wrong identity", args: []string{"checkauth", "-identity", "lol@test.local"},
			extra: extra{pwd: env.Conf.Backend.AdminPassword}, wantErr: milestone.ErrAuthentication,
		},
		{
			name: "authenticated", args: []string{"checkauth", "-identity", env.Conf.Backend.AdminIdentity},
			extra: extra{pwd: env.Conf.Backend.AdminPassword}, wantOut: "Enter password:\nauthenticated as admin@test.local\n",
		},
	}
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}
		runCliTests(t, cli, out, []cliTest{tt})
	}
}

func Test_commandLine_remind(t *testing.T) {
	cli, env, out := setup(t)

	runCliTests(t, cli, out, []cliTest{
		{name: "default recipient", args: []string{"remind"}, wantOut: "Milestone_1 reminder sent to qa@test.local\n"},
		{name: "explicit", args: []string{"remind", "-to", "Jo <jo@uni.edu.au>", "-milestone", "3"}, wantOut: "Milestone_3 reminder sent to jo@uni.edu.au\n"},
		{name: "bad milestone", args: []string{"remind", "-milestone", "7"}, wantErr: milestone.ErrUnknownMilestone},
		{name: "bad address", args: []string{"remind", "-to", "nobody"}, wantAnyErr: true},
	})

	sent := env.Mail.SentMessages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages; want 2", len(sent))
	}
	if sent[1].Subject != "Milestone 3 Reporting Required" {
		t.Errorf("subject = %q", sent[1].Subject)
	}
	if sent[1].To[0].Name != "Jo" {
		t.Errorf("recipient name = %q", sent[1].To[0].Name)
	}
}

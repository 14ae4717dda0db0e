package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf        *core.Config
	logger      core.Logger
	backend     milestone.Backend
	credentials func(identity, password string) (milestone.Backend, error)
	svc         milestone.Service
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  provision - create or patch the milestone collections")
	fmt.Fprintln(cli.out, "  health [-retries N] [-delay DURATION] - wait for the record backend")
	fmt.Fprintln(cli.out, "  resolve -date YYYY-MM-DD [-semester] - print the milestone of a term start date")
	fmt.Fprintln(cli.out, "  checkauth -identity EMAIL - try admin credentials; the password is prompted next")
	fmt.Fprintln(cli.out, "  remind [-to EMAIL] [-milestone N] - send a milestone reminder email")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	healthCmd := flag.NewFlagSet("health", flag.ExitOnError)
	healthRetries := healthCmd.Int("retries", cli.conf.Backend.HealthRetries, "Number of health checks before giving up.")
	healthDelay := healthCmd.Duration("delay", cli.conf.Backend.HealthDelay, "Delay between health checks.")

	resolveCmd := flag.NewFlagSet("resolve", flag.ExitOnError)
	resolveDate := resolveCmd.String("date", "", "The term start date (YYYY-MM-DD).")
	resolveSemester := resolveCmd.Bool("semester", false, "Use the Semester windows instead of the Term ones.")

	checkAuthCmd := flag.NewFlagSet("checkauth", flag.ExitOnError)
	checkAuthIdentity := checkAuthCmd.String("identity", "", "The admin email. The password will be prompted next.")

	remindCmd := flag.NewFlagSet("remind", flag.ExitOnError)
	remindTo := remindCmd.String("to", cli.conf.TestEmail, "The recipient's email address.")
	remindMilestone := remindCmd.String("milestone", string(milestone.Milestone1), "The milestone to remind about (1, 2, 3 or Milestone_N).")

	switch args[1] {
	case "provision":
		return cli.provision()
	case "health":
		if err := healthCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.health(*healthRetries, *healthDelay)
	case "resolve":
		if err := resolveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resolveDate == "" {
			resolveCmd.Usage()
			return errHelp
		}
		regime := milestone.RegimeTerm
		if *resolveSemester {
			regime = milestone.RegimeSemester
		}
		return cli.resolve(*resolveDate, regime)
	case "checkauth":
		if err := checkAuthCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *checkAuthIdentity == "" {
			checkAuthCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			checkAuthCmd.Usage()
			return errHelp
		}
		return cli.checkAuth(*checkAuthIdentity, string(pwd))
	case "remind":
		if err := remindCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *remindTo == "" {
			remindCmd.Usage()
			return errHelp
		}
		return cli.remind(*remindTo, *remindMilestone)
	default:
		cli.printUsage()
		return errHelp
	}
}

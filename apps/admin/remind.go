package main

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/whenitsdone1/capstone2024/core/milestone"
)

func (cli *commandLine) resolve(date string, regime milestone.Regime) error {
	m, err := cli.svc.Resolve(context.Background(), date, regime)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, m)
	return nil
}

func (cli *commandLine) remind(to, m string) error {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return err
	}
	id, err := milestone.ParseID(m)
	if err != nil {
		return err
	}
	if err = cli.svc.SendReminder([]mail.Address{*addr}, id); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s reminder sent to %s\n", id, addr.Address)
	return nil
}

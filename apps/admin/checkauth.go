package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) checkAuth(identity, pwd string) error {
	backend, err := cli.credentials(identity, pwd)
	if err != nil {
		return err
	}
	if _, err = backend.Authenticate(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "authenticated as %s\n", identity)
	return nil
}

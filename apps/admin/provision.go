package main

import (
	"context"
	"fmt"
	"time"

	"github.com/whenitsdone1/capstone2024/storage/pocketbase"
)

// provision creates or patches every milestone collection.
func (cli *commandLine) provision() error {
	if err := cli.svc.EnsureAllCollections(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "collections are up to date")
	return nil
}

func (cli *commandLine) health(retries int, delay time.Duration) error {
	if err := pocketbase.WaitHealthy(context.Background(), cli.backend, retries, delay, cli.logger); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "backend is healthy")
	return nil
}

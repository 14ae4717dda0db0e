package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/whenitsdone1/capstone2024/assets"
	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
	"github.com/whenitsdone1/capstone2024/services/clock"
	emailsvc "github.com/whenitsdone1/capstone2024/services/email"
	logsvc "github.com/whenitsdone1/capstone2024/services/logger"
	inmemdb "github.com/whenitsdone1/capstone2024/storage/inmem"
	"github.com/whenitsdone1/capstone2024/storage/pocketbase"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up record backend
	credentials := backendFactory(conf, logger)
	backend, err := credentials(conf.Backend.AdminIdentity, conf.Backend.AdminPassword)
	errAndDie(logger, err)

	dates, err := clock.New(conf.DateSource)
	errAndDie(logger, err)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:        conf,
		logger:      logger,
		backend:     backend,
		credentials: credentials,
		svc:         milestone.NewService(backend, dates, milestone.NewCleaner(validate, translator), mailSvc, logger, conf),
		out:         os.Stdout,
	}
	err = cli.run(os.Args)
	// mails go out in the background; let them finish before exiting
	if w, ok := mailSvc.(interface{ Wait() }); ok {
		w.Wait()
	}
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

// backendFactory builds backends of the configured driver for any admin credentials.
func backendFactory(conf *core.Config, logger core.Logger) func(identity, password string) (milestone.Backend, error) {
	var memDB *inmemdb.DB
	authLog := pocketbase.NewAuthLog(logger)

	return func(identity, password string) (milestone.Backend, error) {
		switch conf.Backend.Driver {
		case "memory":
			if memDB == nil {
				memDB = inmemdb.NewDB(conf.Backend.AdminIdentity, conf.Backend.AdminPassword)
			}
			return memDB.WithCredentials(identity, password), nil
		case "pocketbase", "":
			client, err := pocketbase.NewClient(pocketbase.Options{
				BaseURL:  conf.Backend.URL,
				Identity: identity,
				Password: password,
				Timeout:  conf.Backend.Timeout,
			}, authLog)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
		return nil, fmt.Errorf("unknown backend driver %q", conf.Backend.Driver)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}

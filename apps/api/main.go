package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/whenitsdone1/capstone2024/apps/api/echo"
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
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	var out io.Writer = os.Stdout
	if conf.Log.File != "" {
		logFile, err := logsvc.OpenRotatingFile(conf.Log.File, conf.Log.MaxBytes)
		if err != nil {
			log.Fatalf("opening log file: %v", err)
		}
		defer logFile.Close()
		out = io.MultiWriter(os.Stdout, logFile)
	}
	logger := logsvc.NewRollbarLogger(
		log.New(out, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	backendLogger := logsvc.NewRollbarLogger(
		log.New(out, "BACKEND : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	backendLogger.Enable(!conf.Debug)

	// set up record backend
	backend, err := newBackend(conf, backendLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up record backend: %v", err), err)
	}

	dates, err := clock.New(conf.DateSource)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up date source: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf, logger)

	milestoneSvc := milestone.NewService(
		backend, dates, milestone.NewCleaner(validate, translator), mailSvc, logger, conf,
	)

	ctx := context.Background()
	if err = pocketbase.WaitHealthy(ctx, backend, conf.Backend.HealthRetries, conf.Backend.HealthDelay, backendLogger); err != nil {
		logger.Fatal(fmt.Sprintf("record backend unavailable: %v", err), err)
	}
	if err = milestoneSvc.EnsureAllCollections(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("ensuring collections: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	if conf.Server.DebugAddress != "" {
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server, err := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			MilestoneSvc: milestoneSvc,
			Templates:    assets.FS,
			TemplatesDir: assets.AdminTemplatesDir,
		},
	)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newBackend(conf *core.Config, logger core.Logger) (milestone.Backend, error) {
	switch conf.Backend.Driver {
	case "memory":
		return inmemdb.NewDB(conf.Backend.AdminIdentity, conf.Backend.AdminPassword), nil
	case "pocketbase", "":
		client, err := pocketbase.NewClient(pocketbase.Options{
			BaseURL:  conf.Backend.URL,
			Identity: conf.Backend.AdminIdentity,
			Password: conf.Backend.AdminPassword,
			Timeout:  conf.Backend.Timeout,
		}, pocketbase.NewAuthLog(logger))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown backend driver %q", conf.Backend.Driver)
}

package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // /debug/pprof
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	echoapi "github.com/trezcool/censo/apps/api/echo"
	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/census"
	"github.com/trezcool/censo/core/school"
	"github.com/trezcool/censo/core/session"
	"github.com/trezcool/censo/core/settings"
	emailsvc "github.com/trezcool/censo/services/email"
	logsvc "github.com/trezcool/censo/services/logger"
	"github.com/trezcool/censo/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		return errors.Wrap(err, "setting up zap")
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := storage.Open(ctx, conf.Storage)
	if err != nil {
		logger.Fatal("setting up storage", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("closing storage", err)
		}
	}()

	registry, err := school.Open(conf.Census.SchoolsFile)
	if err != nil {
		logger.Fatal("loading school registry", err)
	}

	creds, err := session.NewCredentials(conf.Admin)
	if err != nil {
		logger.Fatal("loading admin credentials", err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	census.InitValidators(validate, translator)
	settings.InitValidators(validate, translator)

	censusSvc := census.NewService(conf, registry, census.NewStore(kv, logger, conf.Census.PollInterval), mailSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), map[string]interface{}{
		"env":     conf.Env,
		"storage": conf.Storage.Driver,
		"schools": registry.Count(),
	})
	defer logger.Info("Application stopped")

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage.Driver)
	expvar.Publish("drafts", expvar.Func(func() interface{} { return censusSvc.OpenDrafts() }))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(conf.Server.Address(), &echoapi.Deps{
		Conf:        conf,
		Logger:      logger,
		CensusSvc:   censusSvc,
		SettingsSvc: settings.NewService(kv, validate, logger),
		Session:     session.NewGuard(ctx, creds, kv, logger),
		Validate:    validate,
		Translator:  translator,
	})

	g, gctx := errgroup.WithContext(ctx)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	debugSrv := &http.Server{Addr: conf.Server.DebugHost, Handler: http.DefaultServeMux}
	go func() {
		if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("debug server closed", err)
		}
	}()
	defer debugSrv.Close()

	// =========================================================================
	// Start API Service

	g.Go(func() error {
		logger.Info("API listening on " + conf.Server.Address())
		return server.Start()
	})

	// picks up submissions written by other instances
	g.Go(func() error {
		return censusSvc.Watch(gctx)
	})

	// =========================================================================
	// Shutdown

	g.Go(func() error {
		select {
		case <-gctx.Done(): // the server or the watcher failed
		case sig := <-shutdown:
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		}
		cancel()

		// give outstanding requests a deadline for completion
		sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer scancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(sctx); err != nil {
			logger.Error("could not stop server gracefully", err)
			if err := server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
		return nil
	})

	return g.Wait()
}

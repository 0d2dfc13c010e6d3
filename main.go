package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	turntable "github.com/derWhity/turntable/internal"
	"github.com/derWhity/turntable/internal/ctxhelper"
	"github.com/derWhity/turntable/internal/hub"
	"github.com/derWhity/turntable/internal/log"
	"github.com/derWhity/turntable/internal/migrate"
	"github.com/derWhity/turntable/internal/models"
	"github.com/derWhity/turntable/internal/repos"
	blocklistrepo "github.com/derWhity/turntable/internal/repos/blocklist/sqlite"
	djrepo "github.com/derWhity/turntable/internal/repos/dj/sqlite"
	eventrepo "github.com/derWhity/turntable/internal/repos/event/sqlite"
	requestrepo "github.com/derWhity/turntable/internal/repos/request/sqlite"
	sessionrepo "github.com/derWhity/turntable/internal/repos/session/inmem"
	"github.com/jmoiron/sqlx"
	"github.com/kardianos/osext"
	_ "github.com/mattn/go-sqlite3" // Just needed for the sqlite driver
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	appName    = "Turntable"
	appVersion = "0.1.0"
	dbFile     = "turntable.db"
)

// Checks and tries to create the given directory recursively (or panics if this fails)
func checkAndCreateDir(path string, logger *logrus.Entry) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if e, ok := err.(*os.PathError); ok && e.Err == syscall.ENOENT {
			logger.WithField(log.FldPath, path).Info("Directory does not exist - trying to create...")
			if err = os.MkdirAll(path, os.ModePerm); err != nil {
				logger.WithError(err).Fatal("Failed to create directory")
			}
			logger.Info("Directory created successfully")
		} else {
			logger.WithError(err).Fatal("Stat has failed")
		}
	} else {
		if !fileInfo.IsDir() {
			logger.Fatalf("'%s' is not a directory. Remove the plain file if you want to continue", path)
		}
	}
}

// ensureDefaultDJ makes sure the configured default DJ account exists, so that a fresh installation
// has a login to start with
func ensureDefaultDJ(djRepo repos.DJRepo, conf *models.DefaultDJConfig, logger *logrus.Entry) {
	if conf == nil || conf.Email == "" {
		return
	}
	email := strings.ToLower(strings.TrimSpace(conf.Email))
	if _, err := djRepo.GetByEmail(email); err == nil {
		return
	} else if err != repos.ErrEntityNotExisting {
		logger.WithError(err).Fatal("Failed to look up default DJ account")
	}
	dj := models.DJ{
		Email: email,
		Name:  conf.Name,
	}
	if err := dj.SetPassword(conf.Password); err != nil {
		logger.WithError(err).Fatal("Failed to set password for default DJ account")
	}
	if err := djRepo.Create(&dj); err != nil {
		logger.WithError(err).Fatal("Failed to create default DJ account")
	}
	logger.Infof("Created default DJ account '%s'", dj.Email)
}

func main() {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		panic(err)
	}

	configFile := flag.String(
		"config",
		filepath.Join(execDir, "config.json"),
		"The configuration file to load the application's configuration from",
	)
	flag.Parse()

	ctx := context.Background()

	// Initialize the logger
	logger := logrus.WithField(log.FldVersion, appVersion)
	logger.Infof("%s version %s is starting up...", appName, appVersion)
	ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger)

	// Load the main configuration file
	cs := turntable.NewConfigService(*configFile)
	if err := cs.Load(ctx); err != nil {
		logger.WithError(err).Error("Cannot load config. Using defaults")
	}
	conf := cs.GetConfig(ctx)

	logger.Infof("Using '%s' as data directory", conf.DataDir)
	checkAndCreateDir(conf.DataDir, logger)

	// Set up the database connection and perform pending migrations
	dbFileName := path.Join(conf.DataDir, dbFile)
	var db *sqlx.DB
	if db, err = sqlx.Open("sqlite3", dbFileName); err != nil {
		logger.WithError(err).Fatal("Failed to open database connection")
	}
	logger.Info("Performing database migrations...")
	if err = migrate.ExecuteMigrationsOnDb(db, logger); err != nil {
		logger.WithError(err).Fatal("Database migration has failed. Please check database for consistency and try again.")
	}

	djRepo := djrepo.New(db, logger)
	eventRepo := eventrepo.New(db, logger)
	requestRepo := requestrepo.New(db, logger)
	blocklistRepo := blocklistrepo.New(db, logger)
	sessionRepo := sessionrepo.New()

	// Make sure there is a DJ account to log in with
	// TODO: Replace by a proper sign-up flow once the DJ frontend supports it
	ensureDefaultDJ(djRepo, conf.DefaultDJ, logger)

	wsHub := hub.New(logger.WithField(log.FldTransport, "WS"))

	evSrv := turntable.NewEventService(eventRepo, wsHub, logger)
	rqSrv := turntable.NewRequestService(
		eventRepo, requestRepo, blocklistRepo, wsHub, conf.DefaultRateLimitMessage, logger,
	)
	blSrv := turntable.NewBlocklistService(blocklistRepo, logger)
	anSrv := turntable.NewAnalyticsService(eventRepo, requestRepo, logger)
	sessServ := turntable.NewSessionService(sessionRepo, djRepo, logger)

	httpLogger := logger.WithField(log.FldTransport, "HTTP")

	h := turntable.MakeHTTPHandler(
		evSrv,
		rqSrv,
		blSrv,
		anSrv,
		sessServ,
		http.HandlerFunc(wsHub.HandleWS),
		httpLogger,
	)

	// Start listening
	errs := make(chan error)

	// Listen for stop signals that will end the service
	go func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		err := fmt.Errorf("%s", <-c)
		logger.Info("Caught signal to stop. Shutting down.")
		errs <- err
	}()

	go func() {
		httpLogger.WithField("addr", conf.ListenAddress).Info("Starting listening port")
		errs <- http.ListenAndServe(conf.ListenAddress, h)
	}()

	// Watchdog for systemd
	go func() {
		interval, err := daemon.SdWatchdogEnabled(false)
		if err != nil || interval == 0 {
			return
		}
		logger.Info("Activating systemd watchdog goroutine")
		port := strings.Split(conf.ListenAddress, ":")[1]
		url := fmt.Sprintf("http://127.0.0.1:%s/alive", port)
		for {
			if _, err := http.Get(url); err == nil {
				daemon.SdNotify(false, "WATCHDOG=1")
			}
			time.Sleep(interval / 3)
		}
	}()

	// Notify systemd that we are ready to go (if available)
	daemon.SdNotify(false, "READY=1")

	logger.WithError(<-errs).Error("Shutdown complete")
}

// Package daemon hosts the refresh controller behind an HTTP API on a unix
// socket.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/accessory"
	"github.com/izyuk/BatteryData/pkg/config"
	"github.com/izyuk/BatteryData/pkg/controller"
	"github.com/izyuk/BatteryData/pkg/events"
	"github.com/izyuk/BatteryData/pkg/history"
	"github.com/izyuk/BatteryData/pkg/notify"
	"github.com/izyuk/BatteryData/pkg/powersource"
	"github.com/izyuk/BatteryData/pkg/smc"
)

var (
	conf   config.Config
	ctrl   *controller.Controller
	store  *history.Store
	sseHub *events.EventHub
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/snapshot", getSnapshot)
	router.GET("/accessories", getAccessories)
	router.GET("/history", getHistory)
	router.GET("/config", getConfig)
	router.PUT("/refresh-interval", setRefreshInterval)
	router.PUT("/estimation-window", setEstimationWindow)
	router.PUT("/chart-window", setChartWindow)
	router.PUT("/show-watts", setShowWatts)
	router.PUT("/compact-label", setCompactLabel)
	router.PUT("/status-bar-expanded", setStatusBarExpanded)
	router.GET("/events", getEvents)
	router.GET("/version", getVersion)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	sseHub = events.NewEventHub()
	store = history.NewStore()

	// The SMC connection is a cross-check only; the daemon runs fine
	// without it.
	smcConn := smc.New()
	var electrical powersource.ElectricalSource
	if err := smcConn.Open(); err != nil {
		logrus.WithError(err).Warn("SMC unavailable, electrical cross-check disabled")
		smcConn = nil
	} else {
		electrical = smcConn
	}

	reader := powersource.NewReader(electrical)

	discovery := accessory.NewDiscovery(
		&accessory.BlueutilEnumerator{},
		&accessory.HIDRegistryProber{},
		platformLevelListener(),
	)

	policy := notify.NewPolicy(notificationSink(), store.WattsAt)

	ctrl = controller.New(reader, discovery, store, policy, conf, sseHub)
	ctrl.Start()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			ctrl.ConfigChanged()
			logrus.Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping refresh controller")
	ctrl.Stop()

	if smcConn != nil {
		logrus.Info("closing smc connection")
		if err := smcConn.Close(); err != nil {
			logrus.Errorf("failed to close smc connection: %v", err)
		}
	}

	logrus.Info("exiting")
	return nil
}

// Command edgegate runs the declarative, plugin-extensible HTTP API
// gateway: it loads a services: configuration document, builds the
// runtime gateway, and serves every configured listener alongside an
// admin server exposing health and metrics.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/edgegate/edgegate/internal/config"
	"github.com/edgegate/edgegate/internal/gateway"
	"github.com/edgegate/edgegate/internal/model"
	"github.com/edgegate/edgegate/internal/plugins/cmsrate"
	"github.com/edgegate/edgegate/internal/plugins/echo"
	"github.com/edgegate/edgegate/internal/pluginreg"
	"github.com/edgegate/edgegate/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the gateway configuration document")
	flag.Parse()

	ambient, err := config.LoadAmbientViper(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := config.NewLogger(ambient)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	registry := pluginreg.New(logger)
	if err := registry.Register("echo", echo.New); err != nil {
		logger.Fatal("registering echo plugin", zap.Error(err))
	}
	if err := registry.Register("cms_rate", cmsrate.New); err != nil {
		logger.Fatal("registering cms_rate plugin", zap.Error(err))
	}

	cfg, err := config.LoadFile(*configPath, registry)
	if err != nil {
		logger.Fatal("loading gateway configuration", zap.Error(err))
	}

	services, err := gateway.Build(cfg, logger)
	if err != nil {
		logger.Fatal("building gateway", zap.Error(err))
	}
	defer services.CloseAll()

	admin := server.NewAdminServer(ambient.GetString("admin.address"), logger, nil)

	listeners := buildListenerServers(cfg, services, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := admin.Start(); err != nil {
			logger.Error("admin server exited", zap.Error(err))
		}
	}()

	for _, ls := range listeners {
		ls := ls
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ls.server.Start(ls.certFile, ls.keyFile); err != nil {
				logger.Error("listener exited", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Warn("admin server shutdown error", zap.Error(err))
	}
	for _, ls := range listeners {
		if err := ls.server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("listener shutdown error", zap.Error(err))
		}
	}

	wg.Wait()
}

type boundListener struct {
	server            *server.ListenerServer
	certFile, keyFile string
}

// buildListenerServers flattens every service's configured listeners
// into one ListenerServer per address, each wrapping that service's
// gateway.Service handler.
func buildListenerServers(cfg *model.Config, services gateway.Set, logger *zap.Logger) []boundListener {
	var out []boundListener
	for _, svc := range cfg.Services {
		handler := services[svc.Name]
		if handler == nil {
			continue
		}
		for _, l := range svc.Listeners {
			var certFile, keyFile string
			if l.Protocol == model.ProtocolHTTPS && l.SSL != nil {
				certFile, keyFile = l.SSL.CertPath, l.SSL.KeyPath
			}
			ls := server.NewListenerServer(l.Name, l.Address, http.Handler(handler), logger, 100, 200)
			out = append(out, boundListener{server: ls, certFile: certFile, keyFile: keyFile})
		}
	}
	return out
}

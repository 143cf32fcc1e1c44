/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Command respcached serves a TTL and LRU bounded response cache over RESP and an admin HTTP API.
//
// Configuration is read from a YAML or JSON file passed with --config.
// Every parameter may be overridden by an environment variable, e.g. RESPCACHE_CACHE_MEMORY_MAXSIZE=1000.
package main

import (
	"context"
	"errors"
	"fmt"
	golog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/acronis/go-respcache/adminserver"
	"github.com/acronis/go-respcache/cache"
	"github.com/acronis/go-respcache/config"
	"github.com/acronis/go-respcache/log"
	"github.com/acronis/go-respcache/respserver"
	"github.com/acronis/go-respcache/service"
)

const envVarsPrefix = "RESPCACHE"

type appConfig struct {
	Log        *log.Config
	Cache      *cache.Config
	RESPServer *respserver.Config
	Admin      *adminserver.Config
}

func main() {
	if err := runApp(os.Args[1:]); err != nil {
		golog.Fatal(err)
	}
}

func runApp(args []string) error {
	flags := pflag.NewFlagSet("respcached", pflag.ContinueOnError)
	cfgPath := flags.StringP("config", "c", "", "path to a YAML or JSON configuration file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAppConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	unit, err := makeServiceUnit(cfg, logger)
	if err != nil {
		return err
	}
	return service.New(logger, unit).Run(context.Background())
}

func loadAppConfig(path string) (*appConfig, error) {
	cfg := &appConfig{
		Log:        log.NewConfig(""),
		Cache:      cache.NewConfig(""),
		RESPServer: respserver.NewConfig(""),
		Admin:      adminserver.NewConfig(""),
	}
	loader := config.NewDefaultLoader(envVarsPrefix)
	if path == "" {
		return cfg, loader.LoadDefaults(cfg.Log, cfg.Cache, cfg.RESPServer, cfg.Admin)
	}
	dataType := config.DataTypeYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dataType = config.DataTypeJSON
	}
	return cfg, loader.LoadFromFile(path, dataType, cfg.Log, cfg.Cache, cfg.RESPServer, cfg.Admin)
}

func makeServiceUnit(cfg *appConfig, logger log.FieldLogger) (service.Unit, error) {
	if !cfg.RESPServer.Enabled && !cfg.Admin.Enabled {
		return nil, errors.New("at least one of RESP and admin servers should be enabled")
	}

	cacheMetrics := cache.NewPrometheusMetrics()
	cacheMetrics.MustRegister()

	respCache, err := cache.NewWithConfig[[]byte](cfg.Cache, logger, cacheMetrics)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	var units []service.Unit
	if cfg.RESPServer.Enabled {
		respSrv, srvErr := respserver.New(cfg.RESPServer, respCache, logger)
		if srvErr != nil {
			return nil, fmt.Errorf("create RESP server: %w", srvErr)
		}
		units = append(units, respSrv)
	}
	if cfg.Admin.Enabled {
		adminSrv, srvErr := adminserver.New(cfg.Admin, respCache, logger)
		if srvErr != nil {
			return nil, fmt.Errorf("create admin server: %w", srvErr)
		}
		units = append(units, adminSrv)
	}
	return service.NewCompositeUnit(units...), nil
}

package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"Booster/api"
	"Booster/booster"
	"Booster/cleanup"
	"Booster/config"
	"Booster/discord"
	"Booster/paths"
	"Booster/priority"
	"Booster/process"
	"Booster/safety"
	"Booster/utils"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetLevel(log.InfoLevel)
	config.Configure()
	cfg := config.TheConfig

	limits := cfg.Limits()
	prefs := cfg.Preferences()
	var watcher *config.Watcher
	if cfg.PreferencesFile != "" {
		watcher = config.NewWatcher(cfg.PreferencesFile, prefs)
		loaded, _, err := watcher.Check()
		if err != nil {
			log.Errorf("error loading preferences: %v", err)
		}
		prefs = loaded
	}

	policy := safety.DefaultPolicy(limits.MinUptime)
	engine := booster.New(booster.Options{
		Snapshot:    process.NewSystemSnapshot(policy.Classify),
		API:         priority.System(),
		Resolver:    paths.NewResolver(cfg.DefaultInstallPath),
		Preferences: prefs,
		Limits:      limits,
		Policy:      policy,
	})
	log.Infof("Booster v%s, allowed paths: %s", booster.Version, utils.AsJson(engine.AllowedPaths()))
	log.Infof("Found %d client process(es) in allowed paths", engine.ProcessCount())

	notifier := discord.New(cfg.DiscordName, cfg.DiscordWebhookInfo, cfg.DiscordWebhookError)
	if notifier.Enabled() {
		utils.PanicOnSec(nil, notifier.Start(5*time.Second))
	}
	server := api.New(engine, notifier, cfg.ProcessCacheTTL)

	scheduler := gocron.NewScheduler(time.Now().Location())
	utils.PanicOnSec(booster.Schedule(scheduler, engine, cfg.DetectInterval, func(summary booster.Summary) {
		server.Publish(api.AutoDetectOp, summary, nil)
	}))
	if watcher != nil {
		utils.PanicOnSec(scheduler.SingletonMode().Every(cfg.PreferencesScanInterval).Do(func() {
			loaded, changed, err := watcher.Check()
			if err != nil {
				log.Errorf("error reloading preferences: %v", err)
				return
			}
			if changed {
				log.Infof("Preferences changed: %s", utils.AsJson(loaded))
				engine.UpdateConfig(loaded)
			}
		}))
	}
	scheduler.StartAsync()

	cleanup.AddOnStopFunc(cleanup.Echo, func(_ os.Signal) {
		if err := server.Close(); err != nil {
			log.Errorf("error closing API: %v", err)
		}
	})
	cleanup.AddOnStopFunc(cleanup.Scheduler, func(_ os.Signal) {
		scheduler.Stop()
	})
	cleanup.AddOnStopFunc(cleanup.Engine, func(_ os.Signal) {
		summary := engine.Close()
		if !summary.Empty() {
			log.Info(summary.String())
		}
	})
	cleanup.AddOnStopFunc(cleanup.Discord, func(_ os.Signal) {
		notifier.Stop()
	})
	blocking := make(chan bool, 1)
	cleanup.InitSignalCallback(blocking)

	if prefs.AutoStart {
		summary, err := engine.Enable()
		server.Publish(api.EnableOp, summary, err)
	}

	go func() {
		if err := server.Start(cfg.ApiAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("error serving API: %v", err)
			cleanup.Stop(os.Interrupt)
			blocking <- true
		}
	}()
	<-blocking
}

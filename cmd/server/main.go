package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groupsight/bot"
	"groupsight/impl/auth"
	"groupsight/impl/core"
	"groupsight/internal/config"
	"groupsight/internal/database"
	"groupsight/internal/http-server/api"
	"groupsight/internal/scheduler"
	"groupsight/lib/logger"
	"groupsight/lib/sl"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)
	lg.Info("starting groupsight", slog.String("config", *configPath), slog.String("env", conf.Env))

	store, err := database.NewSQLClient(conf)
	if err != nil {
		log.Fatal("mysql connection: ", err)
	}
	defer store.Close()

	service := core.New(store, conf.Telegram.OwnerId, conf.Telegram.BotUsername, lg)
	service.SetAuthService(auth.New(conf.Telegram.ApiKey, store))
	if archive := database.NewMongoClient(conf); archive != nil {
		service.SetArchive(archive)
	}

	tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, store, service, lg, bot.BotConfig{
		OwnerId:        conf.Telegram.OwnerId,
		BotUsername:    conf.Telegram.BotUsername,
		WebAppUrl:      conf.Telegram.WebAppUrl,
		VerifyTTL:      time.Duration(conf.Gate.VerifyTTLSeconds) * time.Second,
		SweepBatch:     conf.Gate.SweepBatch,
		BroadcastChunk: conf.Broadcast.ChunkSize,
		BroadcastPause: time.Duration(conf.Broadcast.PauseSec * float64(time.Second)),
	})
	if err != nil {
		log.Fatal("telegram bot: ", err)
	}

	// Errors and worse go to the owner's DM on top of the log file.
	lg = slog.New(logger.NewTelegramHandler(lg.Handler(), tgBot, slog.LevelError))

	jobs := scheduler.New(lg)
	mustRegister(jobs, &scheduler.GateSweepJob{Bot: tgBot})
	mustRegister(jobs, &scheduler.ChannelSnapshotJob{
		Core:         service,
		Counter:      tgBot.MemberCount,
		EveryMinutes: conf.Scheduler.SnapshotEveryMin,
	})
	mustRegister(jobs, &scheduler.ExpiryNoticeJob{Subs: service, Bot: tgBot})
	if err = jobs.Start(); err != nil {
		log.Fatal("scheduler: ", err)
	}

	go func() {
		if err := tgBot.Start(); err != nil {
			lg.Error("telegram bot stopped", sl.Err(err))
		}
	}()

	go func() {
		if err := api.New(conf, lg, service); err != nil {
			lg.Error("api server stopped", sl.Err(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	lg.Info("shutting down")
	jobs.Stop()
	tgBot.Stop()
}

func mustRegister(s *scheduler.Scheduler, j scheduler.Job) {
	if err := s.RegisterJob(j); err != nil {
		log.Fatal("registering job: ", err)
	}
}

package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"groupsight/internal/config"
	"groupsight/internal/http-server/handlers/errors"
	"groupsight/internal/http-server/handlers/miniapp"
	"groupsight/internal/http-server/handlers/owner"
	"groupsight/internal/http-server/middleware/authenticate"
	"groupsight/internal/http-server/middleware/ownersecret"
	"groupsight/internal/http-server/middleware/timeout"
	"groupsight/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	miniapp.Core
	owner.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(5))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Route("/app", func(app chi.Router) {
			app.Use(authenticate.New(log, handler))
			app.Get("/dashboard", miniapp.Dashboard(log, handler))
			app.Get("/plans", miniapp.Plans(log, handler))
			app.Get("/subscription", miniapp.Subscription(log, handler))
			app.Get("/chats", miniapp.Chats(log, handler))
			app.Get("/chats/{id}/stats/{period}", miniapp.Stats(log, handler))
			app.Get("/chats/{id}/campaigns/top", miniapp.CampaignsTop(log, handler))
			app.Get("/chats/{id}/report.csv", miniapp.ReportCSV(log, handler))
		})
		rootApi.Route("/owner", func(own chi.Router) {
			own.Use(ownersecret.New(log, conf.Api.AdminSecret))
			own.Get("/tenants", owner.Tenants(log, handler))
			own.Get("/usage", owner.Usage(log, handler))
			own.Get("/events", owner.Events(log, handler))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}

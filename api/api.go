package api

import (
	"context"
	"net/http"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/andrade-gabriel/ahocultural/entitystore"
	"github.com/andrade-gabriel/ahocultural/outbox"
	"github.com/andrade-gabriel/ahocultural/searchindex"
)

const CName = "api"

var log = logger.NewNamed(CName)

func New() Api {
	return &service{}
}

// Api serves the admin write surface and the public read surface on one
// listener. Writes go store-then-outbox; public listings read the
// search index.
type Api interface {
	app.ComponentRunnable
}

type service struct {
	conf     Config
	mux      *http.ServeMux
	server   *http.Server
	store    entitystore.Store
	outbox   outbox.Outbox
	search   searchindex.Client
	validate *validator.Validate
}

func (s *service) Init(a *app.App) (err error) {
	s.conf = a.MustComponent("config").(configSource).GetApi()
	s.store = a.MustComponent(entitystore.CName).(entitystore.Store)
	s.outbox = a.MustComponent(outbox.CName).(outbox.Outbox)
	s.search = a.MustComponent(searchindex.CName).(searchindex.Client)
	s.validate = newValidator()
	s.setupRouter()
	s.server = &http.Server{Addr: s.conf.Addr, Handler: s.mux}
	return
}

func (s *service) setupRouter() {
	s.mux = http.NewServeMux()
	for _, rt := range s.routes() {
		s.mux.HandleFunc(rt.method+" "+rt.pattern, rt.handler)
	}
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusNotFound, "not found")
	})
}

func (s *service) Name() string {
	return CName
}

// route is one entry of the routing table: exact method and path
// template, no wildcard matching beyond what the table enumerates.
type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

func (s *service) routes() []route {
	var routes []route
	for _, spec := range specs() {
		routes = append(routes,
			route{http.MethodPost, "/admin/" + spec.plural, s.create(spec)},
			route{http.MethodPut, "/admin/" + spec.plural + "/{id}", s.update(spec)},
			route{http.MethodPatch, "/admin/" + spec.plural + "/{id}/active", s.setActive(spec)},
			route{http.MethodGet, "/admin/" + spec.plural + "/{id}", s.adminGet(spec)},
			route{http.MethodGet, "/" + spec.plural, s.list(spec)},
			route{http.MethodGet, "/" + spec.plural + "/{slug}", s.getBySlug(spec)},
		)
	}
	routes = append(routes,
		route{http.MethodGet, "/about", s.aboutGet},
		route{http.MethodPut, "/admin/about", s.aboutPut},
	)
	return routes
}

func (s *service) Run(ctx context.Context) (err error) {
	// buffered so the serve goroutine can exit after Shutdown even when
	// nobody is left reading
	var errCh = make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()
	select {
	case err = <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
		log.Info("api server started", zap.String("addr", s.conf.Addr))
		return
	}
}

func (s *service) Close(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"

	"github.com/andrade-gabriel/ahocultural/api"
	"github.com/andrade-gabriel/ahocultural/config"
	"github.com/andrade-gabriel/ahocultural/db"
	"github.com/andrade-gabriel/ahocultural/entitystore"
	"github.com/andrade-gabriel/ahocultural/ingestor"
	"github.com/andrade-gabriel/ahocultural/notifier"
	"github.com/andrade-gabriel/ahocultural/objectstore"
	"github.com/andrade-gabriel/ahocultural/outbox"
	"github.com/andrade-gabriel/ahocultural/resolver"
	"github.com/andrade-gabriel/ahocultural/searchindex"
)

var log = logger.NewNamed("main")

var flagConfigFile = flag.String("c", "etc/config.yml", "path to the config file")

func main() {
	flag.Parse()

	conf, err := config.NewFromFile(*flagConfigFile)
	if err != nil {
		log.Fatal("can't open config file", zap.Error(err))
	}

	a := new(app.App)
	a.Register(conf).
		Register(db.New()).
		Register(objectstore.New()).
		Register(entitystore.New()).
		Register(notifier.New()).
		Register(outbox.New()).
		Register(searchindex.New()).
		Register(resolver.New()).
		Register(ingestor.New()).
		Register(api.New())

	ctx := context.Background()
	if err = a.Start(ctx); err != nil {
		log.Fatal("can't start app", zap.Error(err))
	}
	log.Info("app started")

	// wait for the interrupt
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	sig := <-exit
	log.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err = a.Close(ctx); err != nil {
		log.Fatal("close error", zap.Error(err))
	}
	log.Info("goodbye!")
}

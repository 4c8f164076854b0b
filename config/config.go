package config

import (
	"os"

	"github.com/anyproto/any-sync/app"
	"gopkg.in/yaml.v3"

	"github.com/andrade-gabriel/ahocultural/api"
	"github.com/andrade-gabriel/ahocultural/db"
	"github.com/andrade-gabriel/ahocultural/ingestor"
	"github.com/andrade-gabriel/ahocultural/notifier"
	"github.com/andrade-gabriel/ahocultural/objectstore"
	"github.com/andrade-gabriel/ahocultural/outbox"
	"github.com/andrade-gabriel/ahocultural/resolver"
	"github.com/andrade-gabriel/ahocultural/searchindex"
)

const CName = "config"

func NewFromFile(path string) (c *Config, err error) {
	c = &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return
}

type Config struct {
	Mysql       db.Config          `yaml:"mysql"`
	ObjectStore objectstore.Config `yaml:"objectStore"`
	Notifier    notifier.Config    `yaml:"notifier"`
	Outbox      outbox.Config      `yaml:"outbox"`
	SearchIndex searchindex.Config `yaml:"searchIndex"`
	Ingestor    ingestor.Config    `yaml:"ingestor"`
	Resolver    resolver.Config    `yaml:"resolver"`
	Api         api.Config         `yaml:"api"`
}

func (c *Config) Init(a *app.App) (err error) {
	return nil
}

func (c *Config) Name() (name string) {
	return CName
}

func (c *Config) GetMysql() db.Config {
	return c.Mysql
}

func (c *Config) GetObjectStore() objectstore.Config {
	return c.ObjectStore
}

func (c *Config) GetNotifier() notifier.Config {
	return c.Notifier
}

func (c *Config) GetOutbox() outbox.Config {
	return c.Outbox
}

func (c *Config) GetSearchIndex() searchindex.Config {
	return c.SearchIndex
}

func (c *Config) GetIngestor() ingestor.Config {
	return c.Ingestor
}

func (c *Config) GetResolver() resolver.Config {
	return c.Resolver
}

func (c *Config) GetApi() api.Config {
	return c.Api
}

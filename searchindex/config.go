package searchindex

import "github.com/andrade-gabriel/ahocultural/objectstore"

type configSource interface {
	GetSearchIndex() Config
}

type Config struct {
	Endpoint    string                  `yaml:"endpoint"`
	Region      string                  `yaml:"region"`
	IndexPrefix string                  `yaml:"indexPrefix"`
	RetryMax    int                     `yaml:"retryMax"`
	Credentials objectstore.Credentials `yaml:"credentials"`
}

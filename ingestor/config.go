package ingestor

import "github.com/andrade-gabriel/ahocultural/objectstore"

type configSource interface {
	GetIngestor() Config
}

type Config struct {
	Region      string                  `yaml:"region"`
	QueueUrl    string                  `yaml:"queueUrl"`
	Credentials objectstore.Credentials `yaml:"credentials"`
}

package notifier

import "github.com/andrade-gabriel/ahocultural/objectstore"

type configSource interface {
	GetNotifier() Config
}

type Config struct {
	Region      string                  `yaml:"region"`
	TopicArn    string                  `yaml:"topicArn"`
	Credentials objectstore.Credentials `yaml:"credentials"`
}

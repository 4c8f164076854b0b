package api

type configSource interface {
	GetApi() Config
}

type Config struct {
	Addr string `yaml:"addr"`
}

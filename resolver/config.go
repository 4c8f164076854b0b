package resolver

type configSource interface {
	GetResolver() Config
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Redis        Redis `yaml:"redis"`
	CacheTTLSecs int   `yaml:"cacheTTLSecs"`
}

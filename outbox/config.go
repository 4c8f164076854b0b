package outbox

type configSource interface {
	GetOutbox() Config
}

type Config struct {
	RelayIntervalSecs int `yaml:"relayIntervalSecs"`
	BatchSize         int `yaml:"batchSize"`
}

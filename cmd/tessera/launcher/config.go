package launcher

import (
	"os"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"
)

// Config is the TOML-loadable launcher configuration. Flags override whatever
// the file sets.
type Config struct {
	ChainID int64
	DataDir string
	Metrics MetricsConfig
}

type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// DefaultConfig targets an in-memory run on a private chain.
func DefaultConfig() Config {
	return Config{
		ChainID: 31337,
		Metrics: MetricsConfig{
			Endpoint: "127.0.0.1:19090",
		},
	}
}

func loadConfig(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(cfg); err != nil {
		return errors.Wrap(err, "failed to decode config file")
	}
	return nil
}

// makeConfig assembles the run configuration from defaults, the optional
// config file and the command line, in that order.
func makeConfig(ctx *cli.Context) (Config, error) {
	cfg := DefaultConfig()
	if path := ctx.GlobalString(configFileFlag.Name); path != "" {
		if err := loadConfig(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.GlobalIsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(chainIDFlag.Name) {
		cfg.ChainID = ctx.GlobalInt64(chainIDFlag.Name)
	}
	if ctx.GlobalIsSet(metricsFlag.Name) {
		cfg.Metrics.Enabled = ctx.GlobalBool(metricsFlag.Name)
	}
	if ctx.GlobalIsSet(metricsEndpointFlag.Name) {
		cfg.Metrics.Endpoint = ctx.GlobalString(metricsEndpointFlag.Name)
	}
	return cfg, nil
}

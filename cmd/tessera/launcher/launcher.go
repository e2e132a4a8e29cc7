// Package launcher wires the command line interface of the tessera demo
// node: flag parsing, configuration loading, and the end-to-end pipeline
// runs for both account models.
package launcher

import (
	"os"
	"sort"

	"gopkg.in/urfave/cli.v1"

	"github.com/tessera-chain/go-tessera/logger"
	"github.com/tessera-chain/go-tessera/monitoring"
	"github.com/tessera-chain/go-tessera/version"
)

const clientIdentifier = "go-tessera"

var log = logger.New("launcher")

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the persistent state database (in-memory when empty)",
	}
	chainIDFlag = cli.Int64Flag{
		Name:  "chainid",
		Usage: "Chain ID bound into signed envelopes",
	}
	metricsFlag = cli.BoolFlag{
		Name:  "metrics",
		Usage: "Enable the Prometheus metrics endpoint",
	}
	metricsEndpointFlag = cli.StringFlag{
		Name:  "metrics.endpoint",
		Usage: "Prometheus metrics listen address",
	}
)

var app = cli.NewApp()

func init() {
	app.Name = clientIdentifier
	app.Usage = "programmable authorization account demo node"
	app.Version = version.AsString()
	app.Flags = []cli.Flag{
		configFileFlag,
		dataDirFlag,
		chainIDFlag,
		metricsFlag,
		metricsEndpointFlag,
	}
	app.Commands = []cli.Command{
		{
			Name:   "aggregate",
			Usage:  "Run a signed operation batch through the entry point pipeline",
			Action: aggregateDemo,
		},
		{
			Name:   "native",
			Usage:  "Run a signed envelope through the bootloader pipeline",
			Action: nativeDemo,
		},
	}
	sort.Sort(cli.CommandsByName(app.Commands))
}

// Run starts the command line interface.
func Run() error {
	return app.Run(os.Args)
}

func startMetrics(cfg Config) {
	if cfg.Metrics.Enabled {
		monitoring.PrometheusListener(cfg.Metrics.Endpoint)
	}
}

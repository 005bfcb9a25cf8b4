package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/nerrad567/w1logger/internal/infrastructure/config"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath  string
	envFile     string
	showVersion bool

	// overrides apply flags the user set explicitly, so unset flags never
	// mask values from the config file or environment.
	overrides []config.Override
}

// parseFlags parses args (without the program name).
//
// Short aliases share storage with their long form: -H/-host, -P/-port,
// -D/-db, -M/-measurement, -b/-batchsize, -s/-sleep. The single positional
// argument is the sensor list path.
func parseFlags(args []string, stderr io.Writer) (*cliOptions, error) {
	defaults := config.Default()
	fs := flag.NewFlagSet("w1logger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: w1logger [flags] <sensors>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	var (
		opts        cliOptions
		host        string
		port        int
		database    string
		measurement string
		batchSize   int
		sleep       int
		logLevel    string
	)

	fs.StringVar(&opts.configPath, "config", "", "optional YAML configuration file")
	fs.StringVar(&opts.envFile, "env-file", "", "optional .env file with W1LOGGER_* variables")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	fs.StringVar(&logLevel, "log-level", defaults.Logging.Level, "log level (debug, info, warn, error)")

	fs.StringVar(&host, "host", defaults.InfluxDB.Host, "InfluxDB host")
	fs.StringVar(&host, "H", defaults.InfluxDB.Host, "alias for -host")
	fs.IntVar(&port, "port", defaults.InfluxDB.Port, "InfluxDB port")
	fs.IntVar(&port, "P", defaults.InfluxDB.Port, "alias for -port")
	fs.StringVar(&database, "db", defaults.InfluxDB.Database, "InfluxDB database")
	fs.StringVar(&database, "D", defaults.InfluxDB.Database, "alias for -db")
	fs.StringVar(&measurement, "measurement", defaults.InfluxDB.Measurement, "InfluxDB measurement")
	fs.StringVar(&measurement, "M", defaults.InfluxDB.Measurement, "alias for -measurement")
	fs.IntVar(&batchSize, "batchsize", defaults.Poller.BatchSize, "number of ticks per database write")
	fs.IntVar(&batchSize, "b", defaults.Poller.BatchSize, "alias for -batchsize")
	fs.IntVar(&sleep, "sleep", defaults.Poller.Interval, "seconds between ticks")
	fs.IntVar(&sleep, "s", defaults.Poller.Interval, "alias for -sleep")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.showVersion {
		return &opts, nil
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	if fs.NArg() == 1 {
		list := fs.Arg(0)
		opts.overrides = append(opts.overrides, func(c *config.Config) { c.Sensors.List = list })
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host", "H":
			opts.overrides = append(opts.overrides, func(c *config.Config) { c.InfluxDB.Host = host })
		case "port", "P":
			opts.overrides = append(opts.overrides, func(c *config.Config) { c.InfluxDB.Port = port })
		case "db", "D":
			opts.overrides = append(opts.overrides, func(c *config.Config) { c.InfluxDB.Database = database })
		case "measurement", "M":
			opts.overrides = append(opts.overrides, func(c *config.Config) { c.InfluxDB.Measurement = measurement })
		case "batchsize", "b":
			opts.overrides = append(opts.overrides, func(c *config.Config) { c.Poller.BatchSize = batchSize })
		case "sleep", "s":
			opts.overrides = append(opts.overrides, func(c *config.Config) { c.Poller.Interval = sleep })
		case "log-level":
			opts.overrides = append(opts.overrides, func(c *config.Config) { c.Logging.Level = logLevel })
		}
	})

	return &opts, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/envelope-zero/ledger/internal/cli"
	"github.com/envelope-zero/ledger/internal/config"
	"github.com/envelope-zero/ledger/internal/database"
	"github.com/envelope-zero/ledger/internal/events"
	"github.com/envelope-zero/ledger/internal/friendlyid"
	"github.com/envelope-zero/ledger/internal/ledger"
	"github.com/envelope-zero/ledger/internal/metrics"
	"github.com/envelope-zero/ledger/internal/models"
	"github.com/envelope-zero/ledger/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Log format can be explicitly set. JSON is the default.
	// Logs go to stderr, stdout is reserved for command output.
	output := io.Writer(os.Stderr)
	if cfg.LogFormat == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(output).With().Timestamp().Logger()

	if err := run(context.Background(), cfg, os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprint(os.Stderr, cli.Usage())
		}
		log.Fatal().Msg(err.Error())
	}
}

func run(ctx context.Context, cfg config.Config, args []string) error {
	dialector, err := database.Dialector(cfg)
	if err != nil {
		return err
	}

	db, err := database.Connect(dialector)
	if err != nil {
		return err
	}

	// Migrate all models so that the schema is correct
	if err := models.Migrate(db); err != nil {
		return err
	}

	encoder, err := friendlyid.New(cfg.HashidsSalt)
	if err != nil {
		return err
	}

	m := metrics.New()
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = client
	}

	s := store.New(db, store.WithLockTimeout(cfg.LockTimeout), store.WithMetrics(m))
	app := cli.App{
		Store: s,
		Engine: ledger.New(s, encoder,
			ledger.WithOverdraft(cfg.AllowOverdraft),
			ledger.WithMetrics(m),
			ledger.WithPublisher(publisher),
			ledger.WithLogger(log.Logger),
		),
		Query: ledger.NewQuery(s),
	}

	err = cli.Run(ctx, app, args, os.Stdout)

	// Metrics of the run are picked up by the node exporter's textfile collector
	if cfg.MetricsTextfile != "" {
		if werr := prometheus.WriteToTextfile(cfg.MetricsTextfile, prometheus.DefaultGatherer); werr != nil {
			log.Error().Err(werr).Str("path", cfg.MetricsTextfile).Msg("Writing metrics failed")
		}
	}

	return err
}

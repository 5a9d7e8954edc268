package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"p2000-receiver/common/database"
	"p2000-receiver/common/mqtt"
	rediscommon "p2000-receiver/common/redis"
	"p2000-receiver/internal/aggregator"
	"p2000-receiver/internal/config"
	"p2000-receiver/internal/consumer"
	"p2000-receiver/internal/dispatcher"
	"p2000-receiver/internal/extractor"
	"p2000-receiver/internal/filter"
	"p2000-receiver/internal/geo"
	"p2000-receiver/internal/metrics"
	"p2000-receiver/internal/models"
	"p2000-receiver/internal/pipeline"
	"p2000-receiver/internal/refdata"
	"p2000-receiver/internal/repository"
	"p2000-receiver/internal/resolver"
	"p2000-receiver/internal/router"

	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Reference table file names inside the data directory.
const (
	CapcodesFile      = "db_capcodes.txt"
	PlaceNamesFile    = "db_plaatsnamen.txt"
	AbbreviationsFile = "db_pltsnmn.txt"
)

const connectTimeout = 10 * time.Second

// Option customises a ReceiverService.
type Option func(*options)

type options struct {
	sinks []dispatcher.Sink
	input io.Reader
}

// WithSinks adds sinks next to the configured ones.
func WithSinks(sinks ...dispatcher.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sinks...) }
}

// WithInput sets the reader used when the decoder command is "-".
func WithInput(r io.Reader) Option {
	return func(o *options) { o.input = r }
}

// ReceiverService runs the ingest and dispatch tasks.
type ReceiverService struct {
	config *config.Config
	logger *zap.Logger

	buffer   *aggregator.Buffer
	consumer *consumer.DecoderConsumer
	loop     *pipeline.DispatchLoop
	metrics  *metrics.Metrics

	mqttClient    *mqtt.Client
	redisClient   *redis.Client
	natsConn      *nats.Conn
	db            *sql.DB
	metricsServer *http.Server
}

// NewReceiverService loads the reference data and sensors and connects the
// enabled sinks.
func NewReceiverService(cfg *config.Config, logger *zap.Logger, opts ...Option) (*ReceiverService, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &ReceiverService{config: cfg, logger: logger}

	tables := refdata.Load(refdata.Paths{
		Capcodes:      cfg.DataPath(CapcodesFile),
		PlaceNames:    cfg.DataPath(PlaceNamesFile),
		Abbreviations: cfg.DataPath(AbbreviationsFile),
	}, logger)
	receivers, places, abbreviations := tables.Counts()
	logger.Info("Reference data loaded",
		zap.Int("receivers", receivers),
		zap.Int("place_names", places),
		zap.Int("abbreviations", abbreviations),
	)

	ingestFilter, err := filter.Load(cfg.Receiver.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingest filters: %w", err)
	}

	sensors, err := config.LoadSensors(cfg.Receiver.SensorsFile)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Sensors file not found, messages will not be dispatched",
			zap.String("path", cfg.Receiver.SensorsFile))
		sensors = nil
	} else if err != nil {
		return nil, err
	}
	rt, err := router.New(sensors)
	if err != nil {
		return nil, fmt.Errorf("failed to compile sensors: %w", err)
	}

	cache, err := geo.OpenFileCache(cfg.DataPath(geo.CacheFile), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo cache: %w", err)
	}
	geocoder := geo.NewOpenCageClient(geo.OpenCageConfig{
		BaseURL:           cfg.OpenCage.BaseURL,
		Token:             cfg.OpenCage.Token,
		CountryCode:       cfg.OpenCage.CountryCode,
		RequestsPerSecond: cfg.OpenCage.RequestsPerSecond,
	})
	geoResolver := geo.NewResolver(cfg.OpenCage.Enabled, cache, geocoder, logger)

	s.metrics = metrics.New(prometheus.NewRegistry())
	s.buffer = aggregator.NewBuffer(cfg.Receiver.BufferSize)

	sinks, err := s.connectSinks()
	if err != nil {
		s.closeClients()
		return nil, err
	}
	sinks = append(sinks, o.sinks...)

	dispatchOpts := []dispatcher.Option{dispatcher.WithMetrics(s.metrics)}
	if cfg.Journal.Enabled {
		journal, err := s.openJournal()
		if err != nil {
			s.closeClients()
			return nil, err
		}
		dispatchOpts = append(dispatchOpts, dispatcher.WithJournal(journal))
	}
	d := dispatcher.New(rt, sinks, logger, dispatchOpts...)

	ingestor := pipeline.NewIngestor(
		ingestFilter,
		extractor.New(tables),
		resolver.New(tables),
		s.buffer,
		geoResolver,
		s.metrics,
		logger,
	)
	s.consumer = consumer.NewDecoderConsumer(cfg.Receiver.DecoderCmd, o.input, ingestor.HandleLine, logger)
	s.loop = pipeline.NewDispatchLoop(s.buffer, d, cfg.Receiver.DispatchInterval, cfg.Receiver.SettleDelay, logger)

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		s.metricsServer = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	logger.Info("Receiver service created",
		zap.Int("sensors", len(sensors)),
		zap.Int("sinks", len(sinks)),
		zap.Bool("geocoding", cfg.OpenCage.Enabled),
		zap.Int("geo_cache_entries", cache.Len()),
	)
	return s, nil
}

func (s *ReceiverService) connectSinks() ([]dispatcher.Sink, error) {
	cfg := s.config
	var sinks []dispatcher.Sink

	if cfg.HomeAssistant.Enabled {
		sinks = append(sinks, dispatcher.NewHomeAssistantSink(cfg.HomeAssistant.BaseURL, cfg.HomeAssistant.Token, cfg.HomeAssistant.Timeout))
	}

	if cfg.MQTTSink.Enabled {
		client, err := mqtt.NewClient(&cfg.MQTT, s.logger)
		if err != nil {
			return nil, err
		}
		s.mqttClient = client
		sinks = append(sinks, dispatcher.NewMQTTSink(client, cfg.MQTTSink.Topic, cfg.MQTT.QoS, cfg.MQTTSink.Retained))
	}

	if cfg.RedisSink.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		client, err := rediscommon.Connect(ctx, &cfg.Redis)
		cancel()
		if err != nil {
			return nil, err
		}
		s.redisClient = client
		sinks = append(sinks, dispatcher.NewRedisStreamSink(client, cfg.RedisSink.Stream, cfg.RedisSink.MaxLen))
	}

	if cfg.NATS.Enabled {
		conn, err := nats.Connect(cfg.NATS.URL, nats.Name("p2000-receiver"), nats.Timeout(connectTimeout))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		s.natsConn = conn
		sinks = append(sinks, dispatcher.NewNATSSink(conn, cfg.NATS.Subject))
	}

	return sinks, nil
}

func (s *ReceiverService) openJournal() (*repository.JournalRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.OpenPostgres(ctx, &s.config.Database)
	if err != nil {
		return nil, err
	}
	s.db = db

	journal := repository.NewJournalRepository(db, s.logger)
	if err := journal.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return journal, nil
}

// Start runs until ctx is cancelled or a task fails.
func (s *ReceiverService) Start(ctx context.Context) error {
	s.logger.Info("Starting receiver service",
		zap.String("decoder", s.config.Receiver.DecoderCmd),
		zap.Duration("settle_delay", s.config.Receiver.SettleDelay),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.consumer.Start(gctx)
	})
	g.Go(func() error {
		return s.loop.Start(gctx)
	})

	if s.metricsServer != nil {
		g.Go(func() error {
			s.logger.Info("Serving metrics", zap.String("addr", s.metricsServer.Addr))
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.metricsServer.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// Stop releases the sink connections.
func (s *ReceiverService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping receiver service", zap.Int("buffered_messages", s.buffer.Len()))
	if s.metricsServer != nil {
		_ = s.metricsServer.Shutdown(ctx)
	}
	return s.closeClients()
}

func (s *ReceiverService) closeClients() error {
	var errs []error
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.natsConn != nil {
		if err := s.natsConn.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("failed to drain nats: %w", err))
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Messages returns a copy of the recent buffer.
func (s *ReceiverService) Messages() []models.Message {
	return s.buffer.Snapshot()
}

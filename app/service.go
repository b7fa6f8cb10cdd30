package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apisim "github.com/kilianp07/evroute/api/simulation"
	"github.com/kilianp07/evroute/api/vehicles"
	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/dashboard"
	"github.com/kilianp07/evroute/core/factory"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
	eco "github.com/kilianp07/evroute/core/metrics/eco"
	coremon "github.com/kilianp07/evroute/core/monitoring"
	"github.com/kilianp07/evroute/core/simulation"
	"github.com/kilianp07/evroute/core/triplog"
	"github.com/kilianp07/evroute/infra/kpi"
	"github.com/kilianp07/evroute/infra/logger"
	"github.com/kilianp07/evroute/infra/metrics"
	"github.com/kilianp07/evroute/infra/monitoring"
	"github.com/kilianp07/evroute/infra/mqtt"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// Service wires the controller to its frame driver, sinks, trip log and
// outer surfaces.
type Service struct {
	Controller *simulation.Controller
	Driver     *FrameDriver
	Timeline   *dashboard.Timeline
	Trips      triplog.Store
	Eco        eco.Store

	cfg      *config.Config
	bus      *eventbus.TypedBus[simulation.Event]
	recorder *triplog.Recorder
	prom     *metrics.PromSink
	mqtt     *mqtt.PahoClient
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Log.Level)
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	net, err := cfg.Network.Build()
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	catalog, err := cfg.Vehicles.Catalog()
	if err != nil {
		return nil, fmt.Errorf("vehicles: %w", err)
	}
	bus := eventbus.NewTyped[simulation.Event]()
	ctrl, err := simulation.New(simulation.Options{
		Network:     net,
		Catalog:     catalog,
		Bus:         bus,
		Logger:      logger.New("simulation"),
		SpeedFactor: cfg.Simulation.SpeedFactor,
		Start:       cfg.Simulation.Start,
		End:         cfg.Simulation.End,
	})
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	for _, t := range cfg.Vehicles.Active {
		if err := ctrl.AddVehicle(t); err != nil {
			return nil, fmt.Errorf("vehicle %s: %w", t, err)
		}
	}

	svc := &Service{Controller: ctrl, cfg: cfg, bus: bus, log: logg}

	configured, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	ecoStore, err := openEcoStore(cfg.Metrics.EcoDB)
	if err != nil {
		return nil, fmt.Errorf("eco store: %w", err)
	}
	svc.Eco = ecoStore
	ecoSink, err := metrics.NewEcoSink(ecoStore, cfg.Metrics.GridFactor, cfg.Metrics.ICEFactor, prometheus.DefaultRegisterer)
	if err != nil {
		svc.closeEco()
		return nil, fmt.Errorf("eco sink: %w", err)
	}
	sinks := []coremetrics.MetricsSink{configured, ecoSink}
	if cfg.Metrics.PrometheusAddr != "" {
		prom, err := metrics.NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
		if err != nil {
			svc.closeEco()
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		svc.prom = prom
		if !hasSink(cfg.Metrics.Sinks, "prometheus") {
			sinks = append(sinks, prom)
		}
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			svc.closeEco()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
		sinks = append(sinks, mqtt.NewTelemetrySink(client, cfg.MQTT.TopicPrefix))
	}
	sink := coremetrics.NewMultiSink(sinks...)

	store, err := triplog.Open(cfg.TripLog)
	if err != nil {
		svc.closeMQTT()
		svc.closeEco()
		return nil, fmt.Errorf("trip log: %w", err)
	}
	svc.Trips = store
	svc.recorder = triplog.NewRecorder(store, sink, logger.New("triplog"))

	svc.Timeline = dashboard.NewTimeline(cfg.Dashboard.TimelineLimit)
	svc.Driver = NewFrameDriver(ctrl, DriverOptions{
		FrameRate:   cfg.Simulation.FrameRate,
		SampleEvery: cfg.Metrics.SampleEvery,
		Sink:        sink,
		Timeline:    svc.Timeline,
		Logger:      logger.New("frame_driver"),
	})
	return svc, nil
}

func openEcoStore(path string) (eco.Store, error) {
	if path == "" {
		return eco.NewMemoryStore(), nil
	}
	s, err := kpi.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func hasSink(cfgs []factory.ModuleConfig, typ string) bool {
	for _, c := range cfgs {
		if c.Type == typ {
			return true
		}
	}
	return false
}

// Run starts every component and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.recorder.Start(ctx, s.bus)
	if s.prom != nil {
		metrics.StartEventCollector(ctx, s.bus, s.prom)
		coremon.Go(func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr, prometheus.DefaultGatherer); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		})
	}
	if s.mqtt != nil && s.cfg.MQTT.Commands {
		l := mqtt.NewCommandListener(s.Controller, logger.New("mqtt_commands"))
		if err := l.Listen(s.mqtt, s.cfg.MQTT.TopicPrefix); err != nil {
			return fmt.Errorf("mqtt commands: %w", err)
		}
	}
	if s.cfg.API.Enabled {
		srv := &http.Server{
			Addr:              s.cfg.API.Addr,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		coremon.Go(func() {
			s.log.Infof("api listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Errorf("api server: %v", err)
			}
		})
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.log.Errorf("api shutdown: %v", err)
			}
		}()
	}
	if s.cfg.Simulation.AutoStart {
		start, end := s.Controller.Selection()
		if _, err := s.Controller.Start(start, end, nil); err != nil {
			s.log.Errorf("auto start: %v", err)
		}
	}
	s.Driver.Run(ctx)
	return nil
}

// Handler returns the HTTP API of the service.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apisim.NewHandler(s.Controller, apisim.Options{Timeline: s.Timeline, Trips: s.Trips, Token: s.cfg.API.Token}))
	mux.Handle(vehicles.KPIPattern, vehicles.NewKPIHandler(s.Eco, s.cfg.Metrics.GridFactor, s.cfg.Metrics.ICEFactor))
	return mux
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.closeMQTT()
	s.closeEco()
	s.bus.Close()
	coremon.Flush(2 * time.Second)
	if s.Trips != nil {
		return s.Trips.Close()
	}
	return nil
}

func (s *Service) closeEco() {
	if c, ok := s.Eco.(io.Closer); ok {
		_ = c.Close()
	}
}

func (s *Service) closeMQTT() {
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
}

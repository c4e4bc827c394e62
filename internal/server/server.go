// Package server runs the simulation behind an HTTP surface for
// orchestration and rendering collaborators. It owns the wall-clock spawn
// and tick timers, serializes them against each other so a tick is atomic,
// and ships read-only snapshots out over JSON endpoints and a websocket
// stream. It draws nothing itself.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mergeworks/zipsim/internal/config"
	"github.com/mergeworks/zipsim/internal/sim"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server drives a road from wall-clock timers and exposes its state.
type Server struct {
	cfg config.Config
	log *slog.Logger

	mu      sync.Mutex // guards road and spawner; held for a full tick
	road    *sim.Road
	spawner *sim.Spawner

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]struct{}

	registry     *prometheus.Registry
	throughput   prometheus.Gauge
	fairness     prometheus.Gauge
	vehicleCount prometheus.Gauge
	completed    prometheus.Gauge
}

// New constructs a Server around a fresh road built from cfg.
func New(cfg config.Config, log *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	road, err := sim.NewRoad(sim.ParamsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		road:     road,
		spawner:  sim.NewSpawner(cfg),
		clients:  make(map[*websocket.Conn]struct{}),
		registry: prometheus.NewRegistry(),
		throughput: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zipsim_throughput_vehicles_per_second",
			Help: "Sliding-window completion rate.",
		}),
		fairness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zipsim_fairness_score",
			Help: "Normalized inverse of travel-time dispersion, in (0,1].",
		}),
		vehicleCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zipsim_vehicles_on_road",
			Help: "Vehicles currently on the grid.",
		}),
		completed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zipsim_vehicles_completed_total",
			Help: "Vehicles that have completed the road since start.",
		}),
	}
	s.registry.MustRegister(s.throughput, s.fairness, s.vehicleCount, s.completed)
	return s, nil
}

// Run starts the simulation loop and serves HTTP on addr until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.loop(ctx)

	srv := &http.Server{Addr: addr, Handler: s.router()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.Info("server listening", "addr", addr,
		"tick_s", s.cfg.TickIntervalS, "spawn_s", s.cfg.SpawnIntervalS)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
}

// loop owns the spawn and tick timers. Both fire independently but are
// serialized through the road mutex, so a spawn never lands mid-tick.
func (s *Server) loop(ctx context.Context) {
	tick := time.NewTicker(time.Duration(s.cfg.TickIntervalS * float64(time.Second)))
	spawn := time.NewTicker(time.Duration(s.cfg.SpawnIntervalS * float64(time.Second)))
	defer tick.Stop()
	defer spawn.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-spawn.C:
			s.mu.Lock()
			_, ok := s.road.SpawnVehicle(s.spawner.Traits())
			s.mu.Unlock()
			if !ok {
				s.log.Debug("spawn skipped, no open lane")
			}
		case <-tick.C:
			s.mu.Lock()
			s.road.AdvanceTick()
			snap := s.road.Snapshot()
			s.vehicleCount.Set(float64(s.road.VehicleCount()))
			s.completed.Set(float64(s.road.TotalCompleted()))
			s.mu.Unlock()

			s.throughput.Set(snap.Throughput)
			s.fairness.Set(snap.Fairness)
			s.broadcast(snap)
		}
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/api/state", s.handleState)
	router.GET("/api/metrics", s.handleMetrics)
	router.GET("/api/config", s.handleConfig)
	router.POST("/api/reset", s.handleReset)
	router.GET("/ws", s.handleWebsocket)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	return router
}

func (s *Server) handleState(c *gin.Context) {
	s.mu.Lock()
	snap := s.road.Snapshot()
	s.mu.Unlock()
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleMetrics(c *gin.Context) {
	s.mu.Lock()
	resp := gin.H{
		"throughput": s.road.Throughput(),
		"fairness":   s.road.Fairness(),
		"vehicles":   s.road.VehicleCount(),
		"completed":  s.road.TotalCompleted(),
		"time_s":     s.road.Now(),
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg)
}

// handleReset discards the road and builds a fresh one from the same
// configuration. Engine teardown is reference discard; there is nothing
// else to release.
func (s *Server) handleReset(c *gin.Context) {
	road, err := sim.NewRoad(sim.ParamsFromConfig(s.cfg))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	s.road = road
	s.spawner = sim.NewSpawner(s.cfg)
	s.mu.Unlock()
	s.log.Info("simulation reset")
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// handleWebsocket upgrades the connection and registers it for per-tick
// snapshot broadcasts. The server never reads application data from
// clients; a read loop runs only to detect disconnects.
func (s *Server) handleWebsocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	s.clientsMu.Lock()
	s.clients[ws] = struct{}{}
	s.clientsMu.Unlock()
	s.log.Info("render client connected", "remote", ws.RemoteAddr().String())

	go func() {
		defer s.dropClient(ws)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropClient(ws *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, ws)
	s.clientsMu.Unlock()
	ws.Close()
	s.log.Info("render client disconnected", "remote", ws.RemoteAddr().String())
}

// broadcast sends one snapshot to every connected render client, dropping
// clients whose writes fail.
func (s *Server) broadcast(snap sim.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("snapshot marshal failed", "error", err)
		return
	}

	s.clientsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for ws := range s.clients {
		conns = append(conns, ws)
	}
	s.clientsMu.Unlock()

	for _, ws := range conns {
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.dropClient(ws)
		}
	}
}

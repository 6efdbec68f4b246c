package monitoring

import (
	"context"
	"sync"
	"time"

	"valcoin-api/internal/cache"
)

type HealthChecker interface {
	CheckHealth(ctx context.Context) *HealthStatus
	RegisterCheck(name string, checker ComponentChecker)
	StartPeriodicChecks(interval time.Duration)
	StopPeriodicChecks()
	GetComponentStatus(component string) *ComponentHealth
}

type ComponentChecker interface {
	Check(ctx context.Context) error
	Name() string
	Timeout() time.Duration
}

type HealthStatus struct {
	Status     string                      `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time                   `json:"timestamp"`
	Uptime     time.Duration               `json:"uptime"`
	Version    string                      `json:"version"`
	Components map[string]*ComponentHealth `json:"components"`
	Summary    *HealthSummary              `json:"summary"`
}

type ComponentHealth struct {
	Status      string        `json:"status"` // "healthy", "unhealthy", "unknown"
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

type HealthSummary struct {
	TotalComponents     int `json:"total_components"`
	HealthyComponents   int `json:"healthy_components"`
	UnhealthyComponents int `json:"unhealthy_components"`
	UnknownComponents   int `json:"unknown_components"`
}

type healthChecker struct {
	checkers  map[string]ComponentChecker
	status    map[string]*ComponentHealth
	startTime time.Time
	version   string
	ticker    *time.Ticker
	stopChan  chan struct{}
	mutex     sync.RWMutex
}

func NewHealthChecker(version string) HealthChecker {
	return &healthChecker{
		checkers:  make(map[string]ComponentChecker),
		status:    make(map[string]*ComponentHealth),
		startTime: time.Now(),
		version:   version,
		stopChan:  make(chan struct{}),
	}
}

func (h *healthChecker) RegisterCheck(name string, checker ComponentChecker) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkers[name] = checker
	h.status[name] = &ComponentHealth{
		Status:      "unknown",
		LastChecked: time.Time{},
	}
}

func (h *healthChecker) CheckHealth(ctx context.Context) *HealthStatus {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	overallStatus := "healthy"
	summary := &HealthSummary{
		TotalComponents: len(h.checkers),
	}

	for name, checker := range h.checkers {
		componentHealth := h.checkComponent(ctx, checker)
		h.status[name] = componentHealth

		switch componentHealth.Status {
		case "healthy":
			summary.HealthyComponents++
		case "unhealthy":
			summary.UnhealthyComponents++
			overallStatus = "degraded"
		default:
			summary.UnknownComponents++
			if overallStatus == "healthy" {
				overallStatus = "degraded"
			}
		}
	}

	if summary.UnhealthyComponents > summary.HealthyComponents/2 {
		overallStatus = "unhealthy"
	}

	return &HealthStatus{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Uptime:     time.Since(h.startTime),
		Version:    h.version,
		Components: h.copyStatus(),
		Summary:    summary,
	}
}

func (h *healthChecker) checkComponent(ctx context.Context, checker ComponentChecker) *ComponentHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, checker.Timeout())
	defer cancel()

	err := checker.Check(checkCtx)
	duration := time.Since(start)

	componentHealth := &ComponentHealth{
		LastChecked: time.Now(),
		Duration:    duration,
	}

	if err != nil {
		componentHealth.Status = "unhealthy"
		componentHealth.Error = err.Error()
	} else {
		componentHealth.Status = "healthy"
	}

	return componentHealth
}

func (h *healthChecker) copyStatus() map[string]*ComponentHealth {
	copied := make(map[string]*ComponentHealth)
	for name, status := range h.status {
		copied[name] = &ComponentHealth{
			Status:      status.Status,
			LastChecked: status.LastChecked,
			Duration:    status.Duration,
			Error:       status.Error,
		}
	}
	return copied
}

func (h *healthChecker) GetComponentStatus(component string) *ComponentHealth {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if status, exists := h.status[component]; exists {
		return &ComponentHealth{
			Status:      status.Status,
			LastChecked: status.LastChecked,
			Duration:    status.Duration,
			Error:       status.Error,
		}
	}
	return nil
}

func (h *healthChecker) StartPeriodicChecks(interval time.Duration) {
	h.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-h.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				h.CheckHealth(ctx)
				cancel()
			case <-h.stopChan:
				return
			}
		}
	}()
}

func (h *healthChecker) StopPeriodicChecks() {
	if h.ticker != nil {
		h.ticker.Stop()
	}
	close(h.stopChan)
}

// Built-in component checkers

// DatabaseChecker pings PostgreSQL through the provided probe.
type DatabaseChecker struct {
	name      string
	testQuery func(ctx context.Context) error
}

func NewDatabaseChecker(name string, testQuery func(ctx context.Context) error) ComponentChecker {
	return &DatabaseChecker{
		name:      name,
		testQuery: testQuery,
	}
}

func (d *DatabaseChecker) Name() string {
	return d.name
}

func (d *DatabaseChecker) Timeout() time.Duration {
	return 5 * time.Second
}

func (d *DatabaseChecker) Check(ctx context.Context) error {
	if d.testQuery != nil {
		return d.testQuery(ctx)
	}
	return nil
}

// CacheChecker pings Redis.
type CacheChecker struct {
	name  string
	cache cache.CacheService
}

func NewCacheChecker(name string, cacheService cache.CacheService) ComponentChecker {
	return &CacheChecker{
		name:  name,
		cache: cacheService,
	}
}

func (c *CacheChecker) Name() string {
	return c.name
}

func (c *CacheChecker) Timeout() time.Duration {
	return 3 * time.Second
}

func (c *CacheChecker) Check(ctx context.Context) error {
	return c.cache.Ping(ctx)
}

// FuncChecker wraps an arbitrary probe, used for the message broker.
type FuncChecker struct {
	name    string
	timeout time.Duration
	probe   func(ctx context.Context) error
}

func NewFuncChecker(name string, timeout time.Duration, probe func(ctx context.Context) error) ComponentChecker {
	return &FuncChecker{
		name:    name,
		timeout: timeout,
		probe:   probe,
	}
}

func (f *FuncChecker) Name() string {
	return f.name
}

func (f *FuncChecker) Timeout() time.Duration {
	return f.timeout
}

func (f *FuncChecker) Check(ctx context.Context) error {
	if f.probe != nil {
		return f.probe(ctx)
	}
	return nil
}

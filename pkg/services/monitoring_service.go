package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the id assigned to every request
const RequestIDHeader = "X-Request-ID"

// DefaultLogCapacity bounds the number of request logs kept in memory
const DefaultLogCapacity = 10000

// LogEntry is a single served request
type LogEntry struct {
	RequestID    string        `json:"request_id"`
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time_ns"`
	MerchantID   string        `json:"merchant_id,omitempty"`
}

// MonitoringService logs requests and keeps the most recent ones for the dashboard
type MonitoringService struct {
	mu     sync.RWMutex
	logs   []LogEntry
	next   int
	full   bool
	logger *logrus.Logger
	now    func() time.Time
}

// NewMonitoringService creates a MonitoringService holding up to capacity entries
func NewMonitoringService(capacity int, logger *logrus.Logger) *MonitoringService {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &MonitoringService{
		logs:   make([]LogEntry, capacity),
		logger: logger,
		now:    time.Now,
	}
}

// LogRequest records an entry, overwriting the oldest once the buffer is full
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[s.next] = entry
	s.next = (s.next + 1) % len(s.logs)
	if s.next == 0 {
		s.full = true
	}
}

// entries returns the recorded entries oldest first. Callers must hold the read lock.
func (s *MonitoringService) entries() []LogEntry {
	if !s.full {
		return s.logs[:s.next]
	}
	out := make([]LogEntry, 0, len(s.logs))
	out = append(out, s.logs[s.next:]...)
	return append(out, s.logs[:s.next]...)
}

// LoggingMiddleware assigns a request id, logs the request and records it.
// Monitoring and admin calls are logged but not recorded.
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		path := c.Request.URL.Path
		entry := LogEntry{
			RequestID:    requestID,
			Timestamp:    start.UTC(),
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: s.now().Sub(start),
			MerchantID:   c.GetString("merchant_id"),
		}

		fields := logrus.Fields{
			"request_id": entry.RequestID,
			"method":     entry.Method,
			"path":       entry.Path,
			"status":     entry.StatusCode,
			"latency_ms": entry.ResponseTime.Milliseconds(),
		}
		if entry.MerchantID != "" {
			fields["merchant_id"] = entry.MerchantID
		}
		log := s.logger.WithFields(fields)
		switch {
		case entry.StatusCode >= 500:
			log.Error("Request failed")
		case entry.StatusCode >= 400:
			log.Warn("Request rejected")
		default:
			log.Info("Request served")
		}

		if strings.HasPrefix(path, "/api/monitoring") || strings.HasPrefix(path, "/api/admin") {
			return
		}
		s.LogRequest(entry)
	}
}

// HourlyCount is the number of requests that started in one hour
type HourlyCount struct {
	Time     string `json:"time"`
	Requests int    `json:"requests"`
}

// StatusCount is the number of responses in a status class
type StatusCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// EndpointLatency is the mean response time of one path in milliseconds
type EndpointLatency struct {
	Endpoint     string `json:"endpoint"`
	ResponseTime int64  `json:"responseTime"`
}

// DashboardData is the aggregated view of recent requests
type DashboardData struct {
	RequestsOverTime []HourlyCount     `json:"requestsOverTime"`
	Endpoints        map[string]int    `json:"endpoints"`
	StatusCodes      []StatusCount     `json:"statusCodes"`
	AvgResponseTimes []EndpointLatency `json:"avgResponseTimes"`
	RecentErrors     []LogEntry        `json:"recentErrors"`
}

// maxRecentErrors caps RecentErrors
const maxRecentErrors = 10

// GetDashboardData aggregates the requests of the last periodHours hours in UTC
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	if periodHours <= 0 {
		periodHours = 24
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().UTC()
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	var recent []LogEntry
	for _, e := range s.entries() {
		if e.Timestamp.After(since) {
			recent = append(recent, e)
		}
	}

	// one bucket per hour, oldest first
	currentHour := now.Truncate(time.Hour)
	buckets := make([]HourlyCount, periodHours)
	index := make(map[time.Time]int, periodHours)
	for i := range buckets {
		hour := currentHour.Add(-time.Duration(periodHours-1-i) * time.Hour)
		buckets[i] = HourlyCount{Time: hour.Format("15:00")}
		index[hour] = i
	}

	endpoints := make(map[string]int)
	classes := []StatusCount{{Name: "2xx Success"}, {Name: "4xx Client Error"}, {Name: "5xx Server Error"}}
	latencySum := make(map[string]time.Duration)
	for _, e := range recent {
		if i, ok := index[e.Timestamp.Truncate(time.Hour)]; ok {
			buckets[i].Requests++
		}
		endpoints[e.Path]++
		switch {
		case e.StatusCode >= 200 && e.StatusCode < 300:
			classes[0].Value++
		case e.StatusCode >= 400 && e.StatusCode < 500:
			classes[1].Value++
		case e.StatusCode >= 500:
			classes[2].Value++
		}
		latencySum[e.Path] += e.ResponseTime
	}

	latencies := make([]EndpointLatency, 0, len(latencySum))
	for path, total := range latencySum {
		latencies = append(latencies, EndpointLatency{
			Endpoint:     path,
			ResponseTime: total.Milliseconds() / int64(endpoints[path]),
		})
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i].Endpoint < latencies[j].Endpoint })

	errorsNewestFirst := make([]LogEntry, 0, maxRecentErrors)
	for i := len(recent) - 1; i >= 0 && len(errorsNewestFirst) < maxRecentErrors; i-- {
		if recent[i].StatusCode >= 500 {
			errorsNewestFirst = append(errorsNewestFirst, recent[i])
		}
	}

	return DashboardData{
		RequestsOverTime: buckets,
		Endpoints:        endpoints,
		StatusCodes:      classes,
		AvgResponseTimes: latencies,
		RecentErrors:     errorsNewestFirst,
	}
}

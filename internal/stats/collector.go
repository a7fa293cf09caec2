package stats

import (
	"sort"
	"sync"
	"time"
)

// Counters holds usage counts for one record or for the whole service.
type Counters struct {
	Uploads     int64 `json:"uploads"`
	Fetches     int64 `json:"fetches"`
	Generations int64 `json:"generations"`
	Downloads   int64 `json:"downloads"`
}

// RecordUsage is the per-record usage view.
type RecordUsage struct {
	ApiID string `json:"apiId"`
	Counters
}

// GlobalUsage is the aggregate usage view.
type GlobalUsage struct {
	StartTime time.Time     `json:"startTime"`
	Uptime    string        `json:"uptime"`
	Totals    Counters      `json:"totals"`
	Records   []RecordUsage `json:"records"`
}

// Collector aggregates usage counters per record.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	records   map[string]*Counters
	totals    Counters
}

// NewCollector creates a new usage collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		records:   make(map[string]*Counters),
	}
}

// RecordUpload counts a successful spec upload for the record.
func (c *Collector) RecordUpload(apiID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters(apiID).Uploads++
	c.totals.Uploads++
}

// RecordFetch counts a single-record retrieval.
func (c *Collector) RecordFetch(apiID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters(apiID).Fetches++
	c.totals.Fetches++
}

// RecordGeneration counts a successful SDK generation.
func (c *Collector) RecordGeneration(apiID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters(apiID).Generations++
	c.totals.Generations++
}

// RecordDownload counts an SDK archive download.
func (c *Collector) RecordDownload(apiID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters(apiID).Downloads++
	c.totals.Downloads++
}

// Global returns the aggregate usage view, busiest records first.
func (c *Collector) Global() *GlobalUsage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]RecordUsage, 0, len(c.records))
	for id, counters := range c.records {
		records = append(records, RecordUsage{ApiID: id, Counters: *counters})
	}
	sort.Slice(records, func(i, j int) bool {
		ti := records[i].Uploads + records[i].Fetches + records[i].Generations + records[i].Downloads
		tj := records[j].Uploads + records[j].Fetches + records[j].Generations + records[j].Downloads
		if ti != tj {
			return ti > tj
		}
		return records[i].ApiID < records[j].ApiID
	})

	return &GlobalUsage{
		StartTime: c.startTime,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Totals:    c.totals,
		Records:   records,
	}
}

// Reset clears all counters.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.records = make(map[string]*Counters)
	c.totals = Counters{}
}

func (c *Collector) counters(apiID string) *Counters {
	counters, ok := c.records[apiID]
	if !ok {
		counters = &Counters{}
		c.records[apiID] = counters
	}
	return counters
}

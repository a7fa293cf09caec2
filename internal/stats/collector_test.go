package stats

import (
	"sync"
	"testing"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()

	c.RecordUpload("api-1")
	c.RecordFetch("api-1")
	c.RecordFetch("api-1")
	c.RecordGeneration("api-2")
	c.RecordDownload("api-2")

	usage := c.Global()

	if usage.Totals.Uploads != 1 || usage.Totals.Fetches != 2 || usage.Totals.Generations != 1 || usage.Totals.Downloads != 1 {
		t.Errorf("Unexpected totals: %+v", usage.Totals)
	}
	if len(usage.Records) != 2 {
		t.Fatalf("Expected 2 record entries, got %d", len(usage.Records))
	}

	// api-1 has 3 touches, api-2 has 2; busiest first
	if usage.Records[0].ApiID != "api-1" {
		t.Errorf("Expected api-1 first, got %s", usage.Records[0].ApiID)
	}
	if usage.Records[0].Fetches != 2 {
		t.Errorf("Expected 2 fetches for api-1, got %d", usage.Records[0].Fetches)
	}
	if usage.Uptime == "" {
		t.Error("Expected an uptime string")
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.RecordUpload("api-1")

	c.Reset()

	usage := c.Global()
	if usage.Totals.Uploads != 0 {
		t.Errorf("Expected zero totals after reset, got %+v", usage.Totals)
	}
	if len(usage.Records) != 0 {
		t.Errorf("Expected no record entries after reset, got %d", len(usage.Records))
	}
}

func TestCollector_ConcurrentUpdates(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordFetch("api-1")
			}
		}()
	}
	wg.Wait()

	if got := c.Global().Totals.Fetches; got != 1000 {
		t.Errorf("Expected 1000 fetches, got %d", got)
	}
}

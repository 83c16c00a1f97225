package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
	"github.com/wayfarer-travel/service-companion/internal/domain/zone"
	"github.com/wayfarer-travel/service-companion/internal/platform/kafka"
)

var (
	epoch = time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	klcc  = geo.Coordinate{Latitude: 3.1579, Longitude: 101.7116}
)

type published struct {
	topic string
	event kafka.CloudEvent
}

// recordingPublisher keeps every event it is given.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, event: event})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.event.Type)
	}
	return out
}

func (p *recordingPublisher) count(eventType string) int {
	n := 0
	for _, t := range p.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) last(eventType string) (kafka.CloudEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].event.Type == eventType {
			return p.events[i].event, true
		}
	}
	return kafka.CloudEvent{}, false
}

func (p *recordingPublisher) all(eventType string) []kafka.CloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []kafka.CloudEvent
	for _, e := range p.events {
		if e.event.Type == eventType {
			out = append(out, e.event)
		}
	}
	return out
}

// fixedProvider serves a configurable zone set and counts fetches.
type fixedProvider struct {
	mu    sync.Mutex
	zones []zone.Zone
	err   error
	calls int
}

func (p *fixedProvider) FetchZones(context.Context, geo.Coordinate) ([]zone.Zone, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make([]zone.Zone, len(p.zones))
	copy(out, p.zones)
	return out, nil
}

func (p *fixedProvider) set(zones ...zone.Zone) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.zones = zones
}

func (p *fixedProvider) fetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var errProviderDown = errors.New("safety data unavailable")

func testZone(id string, center geo.Coordinate, radius float64, level zone.Level) zone.Zone {
	return zone.Zone{
		ID:           id,
		Title:        "Zone " + id,
		Description:  "reported incidents",
		Center:       center,
		RadiusMeters: radius,
		Level:        level,
		Type:         zone.TypeTheft,
		ReportCount:  3,
	}
}

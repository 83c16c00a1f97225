package zone

import (
	"context"

	"github.com/wayfarer-travel/service-companion/internal/domain/geo"
)

// zoneTemplate is a canned zone placed at a fixed offset from the traveler.
type zoneTemplate struct {
	id          string
	title       string
	description string
	north, east float64
	radius      float64
	level       Level
	zoneType    Type
	reports     int
}

var generatorTemplates = []zoneTemplate{
	{
		id:          "pickpocket-hotspot",
		title:       "Pickpocket Hotspot",
		description: "Multiple reports of pickpocketing around the transit entrance.",
		north:       300, east: 200,
		radius:   150,
		level:    LevelHigh,
		zoneType: TypeTheft,
		reports:  23,
	},
	{
		id:          "taxi-scam-area",
		title:       "Unlicensed Taxi Touts",
		description: "Drivers offering fixed-price rides well above the metered fare.",
		north:       -500, east: -400,
		radius:   250,
		level:    LevelMedium,
		zoneType: TypeScam,
		reports:  11,
	},
	{
		id:          "demonstration-route",
		title:       "Ongoing Demonstration",
		description: "Large gathering with police presence. Avoid the area.",
		north:       0, east: 1200,
		radius:   400,
		level:    LevelCritical,
		zoneType: TypeProtest,
		reports:  57,
	},
	{
		id:          "market-crowd",
		title:       "Crowded Night Market",
		description: "Dense crowds in the evening. Keep bags in front of you.",
		north:       -900, east: 650,
		radius:   120,
		level:    LevelLow,
		zoneType: TypeCrowd,
		reports:  4,
	},
}

// StaticGenerator fabricates a fixed set of zones around the requested
// position. It stands in for a real safety-data service.
type StaticGenerator struct{}

// NewStaticGenerator creates a StaticGenerator.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

// FetchZones returns the canned zones offset from position.
func (g *StaticGenerator) FetchZones(_ context.Context, position geo.Coordinate) ([]Zone, error) {
	zones := make([]Zone, 0, len(generatorTemplates))
	for _, tpl := range generatorTemplates {
		zones = append(zones, Zone{
			ID:           tpl.id,
			Title:        tpl.title,
			Description:  tpl.description,
			Center:       position.Offset(tpl.north, tpl.east),
			RadiusMeters: tpl.radius,
			Level:        tpl.level,
			Type:         tpl.zoneType,
			ReportCount:  tpl.reports,
		})
	}
	return zones, nil
}

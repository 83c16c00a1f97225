package navigation

import (
	"context"
	"strings"
	"sync"
)

// RouteResolver maps a destination query (gate, flight number or point of
// interest) to a Route. Implementations backed by a real routing service can
// replace the static table without touching the simulator.
type RouteResolver interface {
	Resolve(ctx context.Context, query string) (Route, error)
}

// DefaultDestination names the route returned for unrecognized queries.
const DefaultDestination = "Information Desk"

// StaticRouteResolver resolves queries from an in-memory table. Unknown
// queries fall back to a route to the information desk rather than failing.
type StaticRouteResolver struct {
	mu       sync.RWMutex
	routes   map[string]Route
	aliases  map[string]string
	fallback Route
}

// NewStaticRouteResolver creates a resolver preloaded with the terminal table.
func NewStaticRouteResolver() *StaticRouteResolver {
	r := &StaticRouteResolver{
		routes:   make(map[string]Route),
		aliases:  make(map[string]string),
		fallback: defaultRoute(),
	}
	for _, e := range terminalRoutes() {
		r.Register(e.key, e.route, e.aliases...)
	}
	return r
}

// Register adds or replaces a route under key. Aliases (flight numbers,
// alternative names) resolve to the same route.
func (r *StaticRouteResolver) Register(key string, route Route, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := normalizeQuery(key)
	r.routes[k] = route.clone()
	for _, a := range aliases {
		r.aliases[normalizeQuery(a)] = k
	}
}

// Fallback returns the route used for unknown queries.
func (r *StaticRouteResolver) Fallback() Route {
	return r.fallback.clone()
}

// Resolve returns the route for query, or the fallback route if the query is
// not in the table. It only fails when ctx is already done.
func (r *StaticRouteResolver) Resolve(ctx context.Context, query string) (Route, error) {
	if err := ctx.Err(); err != nil {
		return Route{}, err
	}
	route, _ := r.Lookup(query)
	return route, nil
}

// Lookup is Resolve without a context. The boolean reports whether the query
// matched a known destination.
func (r *StaticRouteResolver) Lookup(query string) (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k := normalizeQuery(query)
	if target, ok := r.aliases[k]; ok {
		k = target
	}
	if route, ok := r.routes[k]; ok {
		return route.clone(), true
	}
	return r.fallback.clone(), false
}

// normalizeQuery lower-cases, trims and collapses inner whitespace so
// "Gate  A12 " and "gate a12" hit the same entry.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

type routeEntry struct {
	key     string
	aliases []string
	route   Route
}

func defaultRoute() Route {
	return NewRoute(DefaultDestination, 4,
		Step{Instruction: "Head straight towards the main concourse", DistanceMeters: 120, Direction: DirectionStraight, Floor: 1},
		Step{Instruction: "Turn right at the departure boards", DistanceMeters: 60, Direction: DirectionRight, Floor: 1},
		Step{Instruction: "The information desk is ahead of you", DistanceMeters: 20, Direction: DirectionArrive, Floor: 1},
	)
}

func terminalRoutes() []routeEntry {
	return []routeEntry{
		{
			key:     "gate a12",
			aliases: []string{"a12", "MH123", "MH 123"},
			route: NewRoute("Gate A12", 7,
				Step{Instruction: "Head straight past security", DistanceMeters: 120, Direction: DirectionStraight, Floor: 1},
				Step{Instruction: "Turn left at the duty-free shop", DistanceMeters: 80, Direction: DirectionLeft, Floor: 1},
				Step{Instruction: "Take the escalator up to level 2", DistanceMeters: 20, Direction: DirectionUp, Floor: 2},
				Step{Instruction: "Continue along the moving walkway", DistanceMeters: 200, Direction: DirectionStraight, Floor: 2},
				Step{Instruction: "Gate A12 is on your right", DistanceMeters: 30, Direction: DirectionArrive, Floor: 2},
			),
		},
		{
			key:     "gate b7",
			aliases: []string{"b7", "SQ318", "SQ 318"},
			route: NewRoute("Gate B7", 9,
				Step{Instruction: "Follow signs for B gates", DistanceMeters: 150, Direction: DirectionStraight, Floor: 1},
				Step{Instruction: "Turn right after the food court", DistanceMeters: 90, Direction: DirectionRight, Floor: 1},
				Step{Instruction: "Take the lift down to the lower level", DistanceMeters: 15, Direction: DirectionDown, Floor: 2},
				Step{Instruction: "Walk through the connector tunnel", DistanceMeters: 260, Direction: DirectionStraight, Floor: 2},
				Step{Instruction: "Turn left at the B concourse", DistanceMeters: 70, Direction: DirectionLeft, Floor: 2},
				Step{Instruction: "Gate B7 is straight ahead", DistanceMeters: 40, Direction: DirectionArrive, Floor: 2},
			),
		},
		{
			key:     "gate c3",
			aliases: []string{"c3", "BA12", "BA 12"},
			route: NewRoute("Gate C3", 5,
				Step{Instruction: "Head towards the C pier", DistanceMeters: 100, Direction: DirectionStraight, Floor: 1},
				Step{Instruction: "Take the escalator up", DistanceMeters: 20, Direction: DirectionUp, Floor: 2},
				Step{Instruction: "Gate C3 is on your left", DistanceMeters: 60, Direction: DirectionArrive, Floor: 2},
			),
		},
		{
			key:     "lounge",
			aliases: []string{"business lounge", "vip lounge"},
			route: NewRoute("Business Lounge", 4,
				Step{Instruction: "Walk past the duty-free shops", DistanceMeters: 90, Direction: DirectionStraight, Floor: 1},
				Step{Instruction: "Take the lift to level 3", DistanceMeters: 10, Direction: DirectionUp, Floor: 3},
				Step{Instruction: "The lounge entrance is on your right", DistanceMeters: 25, Direction: DirectionArrive, Floor: 3},
			),
		},
		{
			key:     "baggage claim",
			aliases: []string{"baggage", "luggage", "arrivals hall"},
			route: NewRoute("Baggage Claim", 6,
				Step{Instruction: "Follow the arrivals signs", DistanceMeters: 140, Direction: DirectionStraight, Floor: 2},
				Step{Instruction: "Take the escalator down to the arrivals hall", DistanceMeters: 20, Direction: DirectionDown, Floor: 1},
				Step{Instruction: "Pass through immigration", DistanceMeters: 110, Direction: DirectionStraight, Floor: 1},
				Step{Instruction: "Belts 1 to 8 are on your left", DistanceMeters: 50, Direction: DirectionArrive, Floor: 1},
			),
		},
		{
			key:     "taxi stand",
			aliases: []string{"taxi", "ground transport"},
			route: NewRoute("Taxi Stand", 5,
				Step{Instruction: "Exit the arrivals hall", DistanceMeters: 80, Direction: DirectionStraight, Floor: 1},
				Step{Instruction: "Turn right along the kerb", DistanceMeters: 120, Direction: DirectionRight, Floor: 1},
				Step{Instruction: "The official taxi queue is ahead", DistanceMeters: 30, Direction: DirectionArrive, Floor: 1},
			),
		},
	}
}

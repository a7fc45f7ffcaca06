package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"eve-chainmap/internal/chain"
	"eve-chainmap/internal/db"
	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/model"
	"eve-chainmap/internal/protocol"
)

// TradeHub is a market system every k-space addition gets a route to.
type TradeHub struct {
	Name     string
	SystemID int32
}

// TradeHubs are listed in the order routes appear in the map.
var TradeHubs = []TradeHub{
	{"Jita", 30000142},
	{"Amarr", 30002187},
	{"Dodixie", 30002659},
	{"Rens", 30002510},
}

// resolve turns an ADD request into a system carrying its reference data:
// class and region always, effect and statics in w-space, trade-hub routes
// in k-space.
func (s *Server) resolve(ctx context.Context, req protocol.AddRequest) (*model.System, error) {
	ss, err := s.db.SystemByName(req.Dest)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &chain.UpdateError{Message: "system does not exist"}
	}
	if err != nil {
		return nil, err
	}

	sys := &model.System{
		Name:   ss.Name,
		Class:  model.Class(ss.Class),
		Region: ss.Region,
		Edge: model.Edge{
			EOL:     req.EOL,
			Frigate: req.Frigate,
			To:      strings.TrimSpace(req.To),
			From:    strings.TrimSpace(req.From),
		},
	}
	if s.cfg.HomeSystem != "" && strings.EqualFold(ss.Name, s.cfg.HomeSystem) {
		sys.Class = model.ClassHome
	}

	if ss.IsWormhole() {
		sys.Effect = ss.Effect
		if sys.Static1, err = s.static(ss.Static1); err != nil {
			return nil, err
		}
		if sys.Static2, err = s.static(ss.Static2); err != nil {
			return nil, err
		}
		return sys, nil
	}

	routes, err := s.routes(ctx, ss.ID)
	if err != nil {
		return nil, err
	}
	sys.Jumps = routes
	return sys, nil
}

func (s *Server) static(name string) (*model.Static, error) {
	if name == "" {
		return nil, nil
	}
	w, err := s.db.WHType(name)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// routes returns the trade-hub routes of a k-space system. Results are
// cached per system and concurrent lookups for the same system share one
// computation.
func (s *Server) routes(ctx context.Context, systemID int32) (model.Routes, error) {
	s.routeCacheMu.RLock()
	cached, ok := s.routeCache[systemID]
	s.routeCacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := s.routeGroup.Do(fmt.Sprint(systemID), func() (interface{}, error) {
		routes := make(model.Routes, len(TradeHubs))
		g, gctx := errgroup.WithContext(ctx)
		for i, hub := range TradeHubs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				routes[i] = model.HubRoute{Hub: hub.Name, Hops: s.hops(systemID, hub.SystemID)}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		s.routeCacheMu.Lock()
		s.routeCache[systemID] = routes
		s.routeCacheMu.Unlock()
		logger.Info("ROUTE", fmt.Sprintf("Computed trade-hub routes for %s", s.universe.SystemName[systemID]))
		return routes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.Routes), nil
}

// hops lists the systems after origin up to and including the hub. An
// unreachable hub gives an empty route.
func (s *Server) hops(origin, hub int32) []model.Hop {
	path, ok := s.universe.Route(origin, hub)
	if !ok {
		return []model.Hop{}
	}
	out := make([]model.Hop, 0, len(path))
	for _, id := range path {
		out = append(out, model.Hop{Name: s.universe.SystemName[id], Security: s.universe.SystemSecurity[id]})
	}
	return out
}

package models

import (
	"strconv"
	"strings"
)

// RegionType is the level of a node in the region hierarchy.
type RegionType string

const (
	RegionTypeGlobal    RegionType = "GLOBAL"
	RegionTypeContinent RegionType = "CONTINENT"
	RegionTypeCountry   RegionType = "COUNTRY"
	RegionTypeState     RegionType = "STATE"
	RegionTypeCity      RegionType = "CITY"
	RegionTypeBranch    RegionType = "BRANCH"
)

// RegionNode is one node of the organizational region hierarchy. Path is
// the materialized ancestor chain of the form "/1/5/20/", root first,
// the node's own id last. Path length is a monotonic proxy for depth.
type RegionNode struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name" validate:"required"`
	Type     RegionType `json:"type" validate:"required,oneof=GLOBAL CONTINENT COUNTRY STATE CITY BRANCH"`
	ParentID *int64     `json:"parent_id,omitempty"`
	Path     string     `json:"path" validate:"required"`
}

// AncestorChain parses the materialized path into the ordered id chain,
// root to self. Empty tokens from the leading/trailing slashes are
// discarded; malformed tokens are skipped rather than failing the chain.
func (r *RegionNode) AncestorChain() []int64 {
	parts := strings.Split(r.Path, "/")
	chain := make([]int64, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}

		chain = append(chain, id)
	}

	return chain
}

// Product, segment and sub-segment reference data used by authority
// matrix scoping. A product belongs to a sub-segment, which belongs to a
// segment; a product's segment is reachable through its sub-segment.

type BusinessSegment struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

type BusinessSubSegment struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"       validate:"required"`
	SegmentID int64  `json:"segment_id" validate:"required"`
}

type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"           validate:"required"`
	SubSegmentID int64  `json:"sub_segment_id" validate:"required"`
	SegmentID    int64  `json:"segment_id"     validate:"required"`
}

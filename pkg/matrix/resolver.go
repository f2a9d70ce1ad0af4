// Package matrix resolves approval authority: given a role, a region and
// optional product/segment scope plus an amount, it selects the most
// specific authority assignment that covers the request.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caseflow/caseflow/pkg/models"
)

var (
	ErrRegionNotFound     = errors.New("region not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrSegmentNotFound    = errors.New("business segment not found")
	ErrSubSegmentNotFound = errors.New("business sub-segment not found")
)

// Scope scores order assignments by how narrowly they are targeted; the
// region path length is added on top so deeper regions outrank ancestors.
const (
	scoreProduct    = 100
	scoreSubSegment = 75
	scoreSegment    = 50
	scoreGlobal     = 0
)

// RegionStore resolves regions. Lookups return nil without error when the
// entity does not exist.
type RegionStore interface {
	RegionByName(ctx context.Context, name string) (*models.RegionNode, error)
	RegionByID(ctx context.Context, id int64) (*models.RegionNode, error)
}

// CatalogStore resolves product hierarchy names. Lookups return nil
// without error when the entity does not exist.
type CatalogStore interface {
	ProductByName(ctx context.Context, name string) (*models.Product, error)
	SegmentByName(ctx context.Context, name string) (*models.BusinessSegment, error)
	SubSegmentByName(ctx context.Context, name string) (*models.BusinessSubSegment, error)
}

// AuthorityStore fetches authority assignments for a role whose scope
// region is one of the given region ids.
type AuthorityStore interface {
	AssignmentsByRoleAndRegions(ctx context.Context, roleCode string, regionIDs []int64) ([]*models.AuthorityAssignment, error)
}

// Request carries the routing context extracted from a case. Product,
// Segment and SubSegment are optional names; Amount is in minor units and
// zero means no amount constraint.
type Request struct {
	Role       string `json:"role"   validate:"required"`
	Region     string `json:"region" validate:"required"`
	Product    string `json:"product,omitempty"`
	Segment    string `json:"segment,omitempty"`
	SubSegment string `json:"sub_segment,omitempty"`
	Amount     int64  `json:"amount,omitempty" validate:"gte=0"`
}

// Resolution is the resolver outcome. CandidateIDs is empty when no
// assignment survives filtering; Reason explains the outcome either way.
type Resolution struct {
	CandidateIDs []string `json:"candidate_ids"`
	Reason       string   `json:"reason"`
}

type Resolver struct {
	regions   RegionStore
	catalog   CatalogStore
	authority AuthorityStore
	logger    *slog.Logger
}

func NewResolver(regions RegionStore, catalog CatalogStore, authority AuthorityStore, logger *slog.Logger) *Resolver {
	return &Resolver{
		regions:   regions,
		catalog:   catalog,
		authority: authority,
		logger:    logger,
	}
}

// scopeContext is the resolved id view of the request's optional names.
// When all three are nil the request carries no product hierarchy context
// and only globally scoped assignments can match.
type scopeContext struct {
	product    *models.Product
	segment    *models.BusinessSegment
	subSegment *models.BusinessSubSegment
}

// Resolve finds the authority assignment covering the request and returns
// its employee as the candidate. Assignments are matched over the region's
// ancestor chain, filtered by scope precedence (product over sub-segment
// over segment over global) and amount coverage, then ranked by
// specificity. Equal scores are broken by the smaller assignment id so the
// outcome never depends on store iteration order.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	region, err := r.regions.RegionByName(ctx, req.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to look up region %q: %w", req.Region, err)
	}

	if region == nil {
		return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, req.Region)
	}

	scope, err := r.resolveScope(ctx, req)
	if err != nil {
		return nil, err
	}

	chain := region.AncestorChain()

	assignments, err := r.authority.AssignmentsByRoleAndRegions(ctx, req.Role, chain)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch authority assignments for role %q: %w", req.Role, err)
	}

	var (
		best      *models.AuthorityAssignment
		bestScore int
	)

	for _, assignment := range assignments {
		if !scopeMatches(assignment, scope) {
			continue
		}

		if !coversAmount(assignment, req.Amount) {
			continue
		}

		score, err := r.specificity(ctx, assignment)
		if err != nil {
			return nil, err
		}

		if best == nil || score > bestScore || (score == bestScore && assignment.ID < best.ID) {
			best = assignment
			bestScore = score
		}
	}

	if best == nil {
		reason := fmt.Sprintf("no authority assignment for role %q covers region %q with the requested scope and amount",
			req.Role, req.Region)
		r.logger.Info("Authority matrix resolution found no candidate",
			"role", req.Role,
			"region", req.Region,
			"amount", req.Amount,
		)

		return &Resolution{CandidateIDs: []string{}, Reason: reason}, nil
	}

	return &Resolution{
		CandidateIDs: []string{best.EmployeeID},
		Reason: fmt.Sprintf("assignment %d (%s scope, specificity %d) covers role %q in region %q",
			best.ID, scopeName(best), bestScore, req.Role, req.Region),
	}, nil
}

func (r *Resolver) resolveScope(ctx context.Context, req Request) (scopeContext, error) {
	var scope scopeContext

	if req.Product != "" {
		product, err := r.catalog.ProductByName(ctx, req.Product)
		if err != nil {
			return scope, fmt.Errorf("failed to look up product %q: %w", req.Product, err)
		}

		if product == nil {
			return scope, fmt.Errorf("%w: %q", ErrProductNotFound, req.Product)
		}

		scope.product = product
	}

	if req.Segment != "" {
		segment, err := r.catalog.SegmentByName(ctx, req.Segment)
		if err != nil {
			return scope, fmt.Errorf("failed to look up segment %q: %w", req.Segment, err)
		}

		if segment == nil {
			return scope, fmt.Errorf("%w: %q", ErrSegmentNotFound, req.Segment)
		}

		scope.segment = segment
	}

	if req.SubSegment != "" {
		subSegment, err := r.catalog.SubSegmentByName(ctx, req.SubSegment)
		if err != nil {
			return scope, fmt.Errorf("failed to look up sub-segment %q: %w", req.SubSegment, err)
		}

		if subSegment == nil {
			return scope, fmt.Errorf("%w: %q", ErrSubSegmentNotFound, req.SubSegment)
		}

		scope.subSegment = subSegment
	}

	return scope, nil
}

// specificity is the scope score plus the length of the scope region's
// materialized path, so deeper regions outrank their ancestors.
func (r *Resolver) specificity(ctx context.Context, assignment *models.AuthorityAssignment) (int, error) {
	score := scoreGlobal

	switch {
	case assignment.ScopeProductID != nil:
		score = scoreProduct
	case assignment.ScopeSubSegmentID != nil:
		score = scoreSubSegment
	case assignment.ScopeSegmentID != nil:
		score = scoreSegment
	}

	region, err := r.regions.RegionByID(ctx, assignment.ScopeRegionID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up scope region %d: %w", assignment.ScopeRegionID, err)
	}

	if region != nil {
		score += len(region.Path)
	}

	return score, nil
}

func scopeMatches(assignment *models.AuthorityAssignment, scope scopeContext) bool {
	switch {
	case assignment.ScopeProductID != nil:
		return scope.product != nil && scope.product.ID == *assignment.ScopeProductID
	case assignment.ScopeSubSegmentID != nil:
		if scope.subSegment != nil && scope.subSegment.ID == *assignment.ScopeSubSegmentID {
			return true
		}

		return scope.product != nil && scope.product.SubSegmentID == *assignment.ScopeSubSegmentID
	case assignment.ScopeSegmentID != nil:
		if scope.segment != nil && scope.segment.ID == *assignment.ScopeSegmentID {
			return true
		}

		if scope.subSegment != nil && scope.subSegment.SegmentID == *assignment.ScopeSegmentID {
			return true
		}

		return scope.product != nil && scope.product.SegmentID == *assignment.ScopeSegmentID
	default:
		// Global assignments match any request, and in strict mode (no
		// product hierarchy context at all) they are the only match.
		return true
	}
}

func coversAmount(assignment *models.AuthorityAssignment, amount int64) bool {
	if amount <= 0 {
		return true
	}

	return assignment.ApprovalLimit != nil && *assignment.ApprovalLimit >= amount
}

func scopeName(assignment *models.AuthorityAssignment) string {
	switch {
	case assignment.ScopeProductID != nil:
		return "product"
	case assignment.ScopeSubSegmentID != nil:
		return "sub-segment"
	case assignment.ScopeSegmentID != nil:
		return "segment"
	default:
		return "global"
	}
}

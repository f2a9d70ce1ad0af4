package file

import (
	"context"

	"github.com/caseflow/caseflow/pkg/models"
)

func (fp *Persistence) regionsPath() string {
	return fp.path(referenceDir, "regions.json")
}

func (fp *Persistence) Regions(_ context.Context) ([]*models.RegionNode, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return readCollection[*models.RegionNode](fp.regionsPath())
}

func (fp *Persistence) RegionByName(_ context.Context, name string) (*models.RegionNode, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	regions, err := readCollection[*models.RegionNode](fp.regionsPath())
	if err != nil {
		return nil, err
	}

	for _, region := range regions {
		if region.Name == name {
			return region, nil
		}
	}

	return nil, nil
}

func (fp *Persistence) RegionByID(_ context.Context, id int64) (*models.RegionNode, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	regions, err := readCollection[*models.RegionNode](fp.regionsPath())
	if err != nil {
		return nil, err
	}

	for _, region := range regions {
		if region.ID == id {
			return region, nil
		}
	}

	return nil, nil
}

func (fp *Persistence) SaveRegion(_ context.Context, region *models.RegionNode) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	regions, err := readCollection[*models.RegionNode](fp.regionsPath())
	if err != nil {
		return err
	}

	if region.ID == 0 {
		region.ID = nextID(regions, func(r *models.RegionNode) int64 { return r.ID })
	}

	regions = upsert(regions, region, func(r *models.RegionNode) int64 { return r.ID })

	return writeDocument(fp.regionsPath(), regions)
}

func (fp *Persistence) segmentsPath() string {
	return fp.path(referenceDir, "segments.json")
}

func (fp *Persistence) SegmentByName(_ context.Context, name string) (*models.BusinessSegment, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	segments, err := readCollection[*models.BusinessSegment](fp.segmentsPath())
	if err != nil {
		return nil, err
	}

	for _, segment := range segments {
		if segment.Name == name {
			return segment, nil
		}
	}

	return nil, nil
}

func (fp *Persistence) SaveSegment(_ context.Context, segment *models.BusinessSegment) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	segments, err := readCollection[*models.BusinessSegment](fp.segmentsPath())
	if err != nil {
		return err
	}

	if segment.ID == 0 {
		segment.ID = nextID(segments, func(s *models.BusinessSegment) int64 { return s.ID })
	}

	segments = upsert(segments, segment, func(s *models.BusinessSegment) int64 { return s.ID })

	return writeDocument(fp.segmentsPath(), segments)
}

func (fp *Persistence) subSegmentsPath() string {
	return fp.path(referenceDir, "sub_segments.json")
}

func (fp *Persistence) SubSegmentByName(_ context.Context, name string) (*models.BusinessSubSegment, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	subSegments, err := readCollection[*models.BusinessSubSegment](fp.subSegmentsPath())
	if err != nil {
		return nil, err
	}

	for _, subSegment := range subSegments {
		if subSegment.Name == name {
			return subSegment, nil
		}
	}

	return nil, nil
}

func (fp *Persistence) SaveSubSegment(_ context.Context, subSegment *models.BusinessSubSegment) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	subSegments, err := readCollection[*models.BusinessSubSegment](fp.subSegmentsPath())
	if err != nil {
		return err
	}

	if subSegment.ID == 0 {
		subSegment.ID = nextID(subSegments, func(s *models.BusinessSubSegment) int64 { return s.ID })
	}

	subSegments = upsert(subSegments, subSegment, func(s *models.BusinessSubSegment) int64 { return s.ID })

	return writeDocument(fp.subSegmentsPath(), subSegments)
}

func (fp *Persistence) productsPath() string {
	return fp.path(referenceDir, "products.json")
}

func (fp *Persistence) ProductByName(_ context.Context, name string) (*models.Product, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	products, err := readCollection[*models.Product](fp.productsPath())
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		if product.Name == name {
			return product, nil
		}
	}

	return nil, nil
}

func (fp *Persistence) SaveProduct(_ context.Context, product *models.Product) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	products, err := readCollection[*models.Product](fp.productsPath())
	if err != nil {
		return err
	}

	if product.ID == 0 {
		product.ID = nextID(products, func(p *models.Product) int64 { return p.ID })
	}

	products = upsert(products, product, func(p *models.Product) int64 { return p.ID })

	return writeDocument(fp.productsPath(), products)
}

func (fp *Persistence) authorityPath() string {
	return fp.path(referenceDir, "authority_assignments.json")
}

func (fp *Persistence) AssignmentsByRoleAndRegions(_ context.Context, roleCode string, regionIDs []int64) ([]*models.AuthorityAssignment, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	assignments, err := readCollection[*models.AuthorityAssignment](fp.authorityPath())
	if err != nil {
		return nil, err
	}

	inChain := make(map[int64]bool, len(regionIDs))
	for _, id := range regionIDs {
		inChain[id] = true
	}

	matched := make([]*models.AuthorityAssignment, 0)

	for _, assignment := range assignments {
		if assignment.RoleCode == roleCode && inChain[assignment.ScopeRegionID] {
			matched = append(matched, assignment)
		}
	}

	return matched, nil
}

func (fp *Persistence) SaveAuthorityAssignment(_ context.Context, assignment *models.AuthorityAssignment) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	assignments, err := readCollection[*models.AuthorityAssignment](fp.authorityPath())
	if err != nil {
		return err
	}

	if assignment.ID == 0 {
		assignment.ID = nextID(assignments, func(a *models.AuthorityAssignment) int64 { return a.ID })
	}

	assignments = upsert(assignments, assignment, func(a *models.AuthorityAssignment) int64 { return a.ID })

	return writeDocument(fp.authorityPath(), assignments)
}

func nextID[T any](items []T, id func(T) int64) int64 {
	var max int64

	for _, item := range items {
		if id(item) > max {
			max = id(item)
		}
	}

	return max + 1
}

func upsert[T any](items []T, item T, id func(T) int64) []T {
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item

			return items
		}
	}

	return append(items, item)
}

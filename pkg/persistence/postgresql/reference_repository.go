package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caseflow/caseflow/pkg/models"
	"github.com/lib/pq"
)

// ReferenceRepository handles region hierarchy, product catalog and
// authority matrix reference data.
type ReferenceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewReferenceRepository creates a new reference data repository.
func NewReferenceRepository(db *sql.DB, logger *slog.Logger) *ReferenceRepository {
	return &ReferenceRepository{db: db, logger: logger}
}

func (r *ReferenceRepository) Regions(ctx context.Context) ([]*models.RegionNode, error) {
	query := `SELECT id, name, type, parent_id, path FROM regions ORDER BY path`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}

	defer r.closeRows(ctx, rows)

	regions := make([]*models.RegionNode, 0)

	for rows.Next() {
		region, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}

		regions = append(regions, region)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating regions: %w", err)
	}

	return regions, nil
}

func (r *ReferenceRepository) RegionByName(ctx context.Context, name string) (*models.RegionNode, error) {
	query := `SELECT id, name, type, parent_id, path FROM regions WHERE name = $1`

	region, err := scanRegion(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan region: %w", err)
	}

	return region, nil
}

func (r *ReferenceRepository) RegionByID(ctx context.Context, id int64) (*models.RegionNode, error) {
	query := `SELECT id, name, type, parent_id, path FROM regions WHERE id = $1`

	region, err := scanRegion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan region: %w", err)
	}

	return region, nil
}

// SaveRegion inserts or updates a region. New regions get their id from
// the sequence.
func (r *ReferenceRepository) SaveRegion(ctx context.Context, region *models.RegionNode) error {
	if region.ID == 0 {
		query := `
			INSERT INTO regions (name, type, parent_id, path)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`

		err := r.db.QueryRowContext(ctx, query, region.Name, region.Type, region.ParentID, region.Path).Scan(&region.ID)
		if err != nil {
			return fmt.Errorf("failed to insert region: %w", err)
		}

		return nil
	}

	query := `
		INSERT INTO regions (id, name, type, parent_id, path)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			parent_id = EXCLUDED.parent_id,
			path = EXCLUDED.path
	`

	_, err := r.db.ExecContext(ctx, query, region.ID, region.Name, region.Type, region.ParentID, region.Path)
	if err != nil {
		return fmt.Errorf("failed to save region: %w", err)
	}

	return nil
}

func (r *ReferenceRepository) SegmentByName(ctx context.Context, name string) (*models.BusinessSegment, error) {
	var segment models.BusinessSegment

	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM business_segments WHERE name = $1`, name).
		Scan(&segment.ID, &segment.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan segment: %w", err)
	}

	return &segment, nil
}

func (r *ReferenceRepository) SaveSegment(ctx context.Context, segment *models.BusinessSegment) error {
	if segment.ID == 0 {
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO business_segments (name) VALUES ($1) RETURNING id`, segment.Name).
			Scan(&segment.ID)
		if err != nil {
			return fmt.Errorf("failed to insert segment: %w", err)
		}

		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO business_segments (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, segment.ID, segment.Name)
	if err != nil {
		return fmt.Errorf("failed to save segment: %w", err)
	}

	return nil
}

func (r *ReferenceRepository) SubSegmentByName(ctx context.Context, name string) (*models.BusinessSubSegment, error) {
	var subSegment models.BusinessSubSegment

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, segment_id FROM business_sub_segments WHERE name = $1`, name).
		Scan(&subSegment.ID, &subSegment.Name, &subSegment.SegmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan sub-segment: %w", err)
	}

	return &subSegment, nil
}

func (r *ReferenceRepository) SaveSubSegment(ctx context.Context, subSegment *models.BusinessSubSegment) error {
	if subSegment.ID == 0 {
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO business_sub_segments (name, segment_id) VALUES ($1, $2) RETURNING id`,
			subSegment.Name, subSegment.SegmentID).
			Scan(&subSegment.ID)
		if err != nil {
			return fmt.Errorf("failed to insert sub-segment: %w", err)
		}

		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO business_sub_segments (id, name, segment_id) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, segment_id = EXCLUDED.segment_id
	`, subSegment.ID, subSegment.Name, subSegment.SegmentID)
	if err != nil {
		return fmt.Errorf("failed to save sub-segment: %w", err)
	}

	return nil
}

func (r *ReferenceRepository) ProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, sub_segment_id, segment_id FROM products WHERE name = $1`, name).
		Scan(&product.ID, &product.Name, &product.SubSegmentID, &product.SegmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	return &product, nil
}

func (r *ReferenceRepository) SaveProduct(ctx context.Context, product *models.Product) error {
	if product.ID == 0 {
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO products (name, sub_segment_id, segment_id) VALUES ($1, $2, $3) RETURNING id`,
			product.Name, product.SubSegmentID, product.SegmentID).
			Scan(&product.ID)
		if err != nil {
			return fmt.Errorf("failed to insert product: %w", err)
		}

		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, sub_segment_id, segment_id) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sub_segment_id = EXCLUDED.sub_segment_id,
			segment_id = EXCLUDED.segment_id
	`, product.ID, product.Name, product.SubSegmentID, product.SegmentID)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	return nil
}

// AssignmentsByRoleAndRegions fetches authority assignments for the role
// whose scope region is one of the given ids.
func (r *ReferenceRepository) AssignmentsByRoleAndRegions(ctx context.Context, roleCode string, regionIDs []int64) ([]*models.AuthorityAssignment, error) {
	query := `
		SELECT id, employee_id, role_code, scope_region_id, scope_segment_id, scope_sub_segment_id, scope_product_id, approval_limit, currency_code
		FROM authority_assignments
		WHERE role_code = $1 AND scope_region_id = ANY($2)
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, roleCode, pq.Array(regionIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query authority assignments: %w", err)
	}

	defer r.closeRows(ctx, rows)

	assignments := make([]*models.AuthorityAssignment, 0)

	for rows.Next() {
		var (
			assignment     models.AuthorityAssignment
			segmentID      sql.NullInt64
			subSegmentID   sql.NullInt64
			productID      sql.NullInt64
			approvalLimit  sql.NullInt64
			currencyCode   sql.NullString
		)

		err = rows.Scan(
			&assignment.ID,
			&assignment.EmployeeID,
			&assignment.RoleCode,
			&assignment.ScopeRegionID,
			&segmentID,
			&subSegmentID,
			&productID,
			&approvalLimit,
			&currencyCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan authority assignment: %w", err)
		}

		if segmentID.Valid {
			assignment.ScopeSegmentID = &segmentID.Int64
		}

		if subSegmentID.Valid {
			assignment.ScopeSubSegmentID = &subSegmentID.Int64
		}

		if productID.Valid {
			assignment.ScopeProductID = &productID.Int64
		}

		if approvalLimit.Valid {
			assignment.ApprovalLimit = &approvalLimit.Int64
		}

		assignment.CurrencyCode = currencyCode.String

		assignments = append(assignments, &assignment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating authority assignments: %w", err)
	}

	return assignments, nil
}

func (r *ReferenceRepository) SaveAuthorityAssignment(ctx context.Context, assignment *models.AuthorityAssignment) error {
	if assignment.ID == 0 {
		query := `
			INSERT INTO authority_assignments (employee_id, role_code, scope_region_id, scope_segment_id, scope_sub_segment_id, scope_product_id, approval_limit, currency_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`

		err := r.db.QueryRowContext(ctx, query,
			assignment.EmployeeID,
			assignment.RoleCode,
			assignment.ScopeRegionID,
			assignment.ScopeSegmentID,
			assignment.ScopeSubSegmentID,
			assignment.ScopeProductID,
			assignment.ApprovalLimit,
			nullableString(assignment.CurrencyCode),
		).Scan(&assignment.ID)
		if err != nil {
			return fmt.Errorf("failed to insert authority assignment: %w", err)
		}

		return nil
	}

	query := `
		INSERT INTO authority_assignments (id, employee_id, role_code, scope_region_id, scope_segment_id, scope_sub_segment_id, scope_product_id, approval_limit, currency_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			employee_id = EXCLUDED.employee_id,
			role_code = EXCLUDED.role_code,
			scope_region_id = EXCLUDED.scope_region_id,
			scope_segment_id = EXCLUDED.scope_segment_id,
			scope_sub_segment_id = EXCLUDED.scope_sub_segment_id,
			scope_product_id = EXCLUDED.scope_product_id,
			approval_limit = EXCLUDED.approval_limit,
			currency_code = EXCLUDED.currency_code
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.EmployeeID,
		assignment.RoleCode,
		assignment.ScopeRegionID,
		assignment.ScopeSegmentID,
		assignment.ScopeSubSegmentID,
		assignment.ScopeProductID,
		assignment.ApprovalLimit,
		nullableString(assignment.CurrencyCode),
	)
	if err != nil {
		return fmt.Errorf("failed to save authority assignment: %w", err)
	}

	return nil
}

func (r *ReferenceRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

func scanRegion(row rowScanner) (*models.RegionNode, error) {
	var (
		region   models.RegionNode
		parentID sql.NullInt64
	)

	err := row.Scan(&region.ID, &region.Name, &region.Type, &parentID, &region.Path)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		region.ParentID = &parentID.Int64
	}

	return &region, nil
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

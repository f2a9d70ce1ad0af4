package models

// AuthorityAssignment maps an employee to a role within a region scope,
// optionally narrowed to a business segment, sub-segment or product, with
// an approval limit. Amounts are minor units (cents) in CurrencyCode.
//
// Scope specificity ordering is fixed: Product > SubSegment > Segment >
// Global (no segment/sub-segment/product scope).
type AuthorityAssignment struct {
	ID            int64  `json:"id"`
	EmployeeID    string `json:"employee_id"     validate:"required"`
	RoleCode      string `json:"role_code"       validate:"required"`
	ScopeRegionID int64  `json:"scope_region_id" validate:"required"`

	ScopeSegmentID    *int64 `json:"scope_segment_id,omitempty"`
	ScopeSubSegmentID *int64 `json:"scope_sub_segment_id,omitempty"`
	ScopeProductID    *int64 `json:"scope_product_id,omitempty"`

	// ApprovalLimit is nil when the assignment carries no monetary
	// authority; such assignments never cover a non-zero amount.
	ApprovalLimit *int64 `json:"approval_limit,omitempty"`
	CurrencyCode  string `json:"currency_code,omitempty"`
}

// IsGlobalScope reports whether the assignment has no product, segment or
// sub-segment narrowing and therefore matches any request in its region.
func (a *AuthorityAssignment) IsGlobalScope() bool {
	return a.ScopeProductID == nil && a.ScopeSubSegmentID == nil && a.ScopeSegmentID == nil
}

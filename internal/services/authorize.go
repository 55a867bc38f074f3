package services

import (
	"sourcing-system/internal/domain"
)

// CanMutate is the single capability check behind every mutating operation:
// the caller must be the aggregate's creator or an admin.
func CanMutate(createdBy string, caller domain.CallerContext) bool {
	return caller.IsAdmin() || caller.ID == createdBy
}

// ScopeRfqFilter narrows an RFQ list query to what the caller may see:
// buyers see their own RFQs, vendors see RFQs they were invited to, admins
// see everything.
func ScopeRfqFilter(filter domain.RfqFilter, caller domain.CallerContext) domain.RfqFilter {
	switch caller.Role {
	case domain.RoleBuyer:
		filter.BuyerID = caller.ID
	case domain.RoleVendor:
		filter.InvitedVendorID = caller.ID
	}
	return filter
}

// ScopeQuoteFilter narrows a Quote list query: vendors see quotes they
// authored, buyers and admins see whatever the filter already selects
// (buyers reach quotes through their own RFQs).
func ScopeQuoteFilter(filter domain.QuoteFilter, caller domain.CallerContext) domain.QuoteFilter {
	if caller.Role == domain.RoleVendor {
		filter.CreatedBy = caller.ID
	}
	return filter
}

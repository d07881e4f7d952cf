package domain

import "fmt"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleStaff:
		return Role(s), true
	default:
		return "", false
	}
}

// Capability is a single permission a route can ask for.
type Capability string

const (
	CapReviewDonors   Capability = "donors:review"
	CapViewDonorFiles Capability = "donors:files"
	CapManageDonors   Capability = "donors:manage"
	CapManageStaff    Capability = "staff:manage"
	CapViewStats      Capability = "stats:view"
	CapExport         Capability = "export"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {CapReviewDonors, CapViewDonorFiles, CapManageDonors, CapManageStaff, CapViewStats, CapExport},
	RoleStaff: {CapReviewDonors, CapViewDonorFiles},
}

// Capabilities returns the role's permission set in a stable order.
func (r Role) Capabilities() []Capability {
	caps := roleCapabilities[r]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

// Principal is the caller resolved from a bearer token and a live account lookup.
type Principal struct {
	AccountID string
	Name      string
	Email     string
	Role      Role
}

// Require fails with ErrForbidden unless the principal's role grants every capability.
func (p *Principal) Require(caps ...Capability) error {
	if p == nil {
		return ErrUnauthenticated
	}
	for _, c := range caps {
		if !p.Role.Can(c) {
			return WithMessage(ErrForbidden, fmt.Sprintf("Access denied. %s role cannot perform this action.", p.Role))
		}
	}
	return nil
}

package domain

import (
	"math"
	"sort"
)

type BloodGroupShare struct {
	BloodGroup BloodGroup `json:"bloodGroup"`
	Count      int        `json:"count"`
	Percentage float64    `json:"percentage"`
}

type AdminStats struct {
	TotalStaff             int               `json:"totalStaff"`
	TotalDonors            int               `json:"totalDonors"`
	ApprovedDonors         int               `json:"approvedDonors"`
	PendingApprovals       int               `json:"pendingApprovals"`
	RejectedDonors         int               `json:"rejectedDonors"`
	TotalBloodUnits        int               `json:"totalBloodUnits"`
	BloodGroupDistribution []BloodGroupShare `json:"bloodGroupDistribution"`
}

type StaffStats struct {
	PendingReviews int `json:"pendingReviews"`
	ApprovedToday  int `json:"approvedToday"`
	TotalDonors    int `json:"totalDonors"`
}

// BuildDistribution turns per-group approved counts into shares of the
// approved total, rounded to one decimal. Groups with no donors are omitted
// and the result is ordered by blood group. With approved == 0 every
// percentage is 0.
func BuildDistribution(counts map[BloodGroup]int, approved int) []BloodGroupShare {
	out := make([]BloodGroupShare, 0, len(counts))
	for g, n := range counts {
		if n <= 0 {
			continue
		}
		share := BloodGroupShare{BloodGroup: g, Count: n}
		if approved > 0 {
			share.Percentage = math.Round(float64(n)/float64(approved)*1000) / 10
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BloodGroup < out[j].BloodGroup })
	return out
}

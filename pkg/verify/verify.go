// Package verify computes a verification status from extracted identity
// fields and the user's declared profile data.
package verify

import (
	"strings"

	"medishare/pkg/extract"
)

// Status levels for a profile's identity verification.
const (
	Unverified        = 0
	PartiallyVerified = 1
	FullyVerified     = 2
)

// Outcome is the result of one evaluation run.
type Outcome struct {
	Status   int
	Verified bool
}

// Evaluate recomputes the verification status from scratch for one
// submission. The government document must match the declared name and dob
// (lower-cased exact equality, no further normalization) to reach partial
// verification; a personal document consistent with the government one
// upgrades to full. Absent or failed extractions are passed as nil and
// naturally fail the comparison. Previous status never feeds in, so a
// mismatching resubmission demotes.
func Evaluate(declaredName, declaredDOB string, gid, pid *extract.Fields) Outcome {
	if gid == nil {
		return Outcome{Status: Unverified}
	}
	gidName := strings.ToLower(gid.FullName)
	gidDOB := strings.ToLower(gid.DOB)
	if gidName != strings.ToLower(declaredName) || gidDOB != strings.ToLower(declaredDOB) {
		return Outcome{Status: Unverified}
	}
	out := Outcome{Status: PartiallyVerified, Verified: true}
	if pid != nil &&
		strings.ToLower(pid.FullName) == gidName &&
		strings.ToLower(pid.DOB) == gidDOB {
		out.Status = FullyVerified
	}
	return out
}

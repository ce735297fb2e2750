package domain

// Actor is the authenticated caller resolved from a bearer token.
type Actor struct {
	ID   int64
	Role Role
}

// Stats holds incident counts per status.
//
// Total is counted independently of the per-status buckets, so an incident holding
// a status outside the enumeration shows up as Total > sum(buckets) instead of
// being silently dropped. Unrecognized records how many such incidents were seen.
type Stats struct {
	Total        int64
	Open         int64
	InProgress   int64
	Resolved     int64
	Closed       int64
	Unrecognized int64
}

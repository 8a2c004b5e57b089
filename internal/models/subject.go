package models

import "time"

// SubjectKind distinguishes a single-period theory subject from a subject
// whose sessions are contiguous multi-period lab blocks.
type SubjectKind string

const (
	SubjectKindTheory SubjectKind = "THEORY"
	SubjectKindLab    SubjectKind = "LAB"
)

// Subject represents an academic subject. Kind/BlockSize/RequiredPeriodsPerWeek
// feed the scheduler's demand expansion directly.
type Subject struct {
	ID                     string      `db:"id" json:"id"`
	Code                   string      `db:"code" json:"code"`
	Name                   string      `db:"name" json:"name"`
	Track                  string      `db:"track" json:"track"`
	SubjectGroup           string      `db:"subject_group" json:"subject_group"`
	Kind                   SubjectKind `db:"kind" json:"kind"`
	BlockSize              int         `db:"block_size" json:"blockSize"`
	RequiredPeriodsPerWeek int         `db:"required_periods_per_week" json:"requiredPeriodsPerWeek"`
	CreatedAt              time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time   `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Track     string
	Group     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/periodmap/pkg/catalogs"
	"github.com/agentstation/periodmap/pkg/discovery"
	"github.com/agentstation/periodmap/pkg/gaps"
)

// Result represents the outcome of a reconciliation operation.
type Result struct {
	// Core data
	Catalog  *catalogs.Catalog
	Coverage gaps.CoverageReport

	// Request is the request after defaults were resolved
	Request Request

	// Years served by static captures and years that fell back to the crawl
	StaticYears   []int
	FallbackYears []int

	// Aggregated drop counts of every pass
	Diagnostics discovery.Diagnostics

	// Metadata
	Metadata ResultMetadata

	// Issues
	Warnings []string
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	// RequestID of the library call that asked for the reconciliation
	RequestID string

	// StartTime when reconciliation started
	StartTime time.Time

	// EndTime when reconciliation completed
	EndTime time.Time

	// Duration of the reconciliation
	Duration time.Duration

	// Sources that contributed a catalog
	Sources []catalogs.Source

	// Strategy used for reconciliation
	Strategy Strategy

	// Statistics about the reconciliation
	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	StaticLinks       int
	LiveLinks         int
	ConflictsResolved int
	TotalTimeMs       int64
}

// HasWarnings returns true if any capture was missing or a source was unavailable.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// IsComplete returns true if no expected period is missing.
func (r *Result) IsComplete() bool {
	return r.Coverage.Complete()
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := fmt.Sprintf("%s %s..%s: %d/%d periods (%.2f%%)",
		r.Request.Category, r.Request.Start, r.Request.End,
		r.Coverage.FoundCount, r.Coverage.ExpectedCount, r.Coverage.CoveragePercent)
	if len(r.Coverage.Gaps) > 0 {
		s += fmt.Sprintf(", %d missing", len(r.Coverage.Gaps))
	}
	if r.HasWarnings() {
		s += fmt.Sprintf(", %d warnings", len(r.Warnings))
	}
	return s
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Catalog:       catalogs.New(),
		StaticYears:   []int{},
		FallbackYears: []int{},
		Diagnostics:   discovery.NewDiagnostics(),
		Warnings:      []string{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			Sources:   []catalogs.Source{},
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.TotalTimeMs = r.Metadata.Duration.Milliseconds()
}

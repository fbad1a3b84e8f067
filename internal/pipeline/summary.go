package pipeline

import (
	"tokensmith/internal/archive"
	"tokensmith/internal/asset"
	"tokensmith/internal/services"
)

// Outcome is the result of building one container.
type Outcome struct {
	Name    string
	Origin  string
	Library bool
	Archive archive.Result
	Match   asset.Match
	// Warnings hold skipped abilities and portrait misses. They never fail a build.
	Warnings []error
	// Stage and Err are set when the build failed.
	Stage string
	Err   error
}

// OK reports whether a container was written.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Class returns the error taxonomy label, or "" for successful builds.
func (o Outcome) Class() string {
	if o.Err == nil {
		return ""
	}
	return services.Classify(o.Err)
}

// Summary describes one run.
type Summary struct {
	RunID    string
	Delivery bool
	Outcomes []Outcome
	// Skipped counts items left out by build.max_items.
	Skipped int
	Library *Outcome

	DeliveryPath string
	DeliveryErr  error
}

// Built counts written creature containers.
func (s *Summary) Built() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed counts creatures without a container.
func (s *Summary) Failed() int {
	return len(s.Outcomes) - s.Built()
}

// Warnings counts warnings across all creatures.
func (s *Summary) Warnings() int {
	n := 0
	for _, o := range s.Outcomes {
		n += len(o.Warnings)
	}
	return n
}

// Err returns a run-level error when nothing useful was produced or the
// delivery archive failed.
func (s *Summary) Err() error {
	if s.DeliveryErr != nil {
		return s.DeliveryErr
	}
	if s.Library != nil && s.Library.Err != nil {
		return s.Library.Err
	}
	return nil
}

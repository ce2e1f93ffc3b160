package extract

import "time"

// Mileage sanity bounds. An odometer of exactly zero is treated as a
// data-entry artifact, not "like new", and is rejected.
const (
	maxMileage = 500_000
)

// centsMagnitude flags a price that was almost certainly captured in
// cents rather than dollars.
const centsMagnitude = 1_000_000_000

// Rules carries the per-site extraction tunables. Site adapters embed a
// Rules value in their config; the assembler never reads global state.
type Rules struct {
	// MinPrice is the lowest believable vehicle price for this source.
	// Guards against parts and accessory listings. Typically 1,000-15,000.
	MinPrice int

	// VINPrefixes optionally tightens VIN validation to a marque's
	// manufacturer codes (e.g. WP0/WP1 for Porsche).
	VINPrefixes []string

	// PlatformLaunchYear bounds the sold-date window: earlier dates are
	// impossible for this platform and are discarded.
	PlatformLaunchYear int

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (r Rules) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// yearValid checks a model year against the plausible vehicle range.
func (r Rules) yearValid(year int) bool {
	return year >= 1900 && year <= r.now().Year()+1
}

// mileageValid applies the numeric sanity bounds; zero is explicitly out.
func mileageValid(v int) bool {
	return v > 0 && v < maxMileage
}

// priceValid applies the per-site minimum threshold.
func (r Rules) priceValid(v int) bool {
	min := r.MinPrice
	if min <= 0 {
		min = 1000
	}
	return v >= min
}

package sensor

// Spec identifies one configured sensor.
type Spec struct {
	// BusID is the device directory name on the w1 bus (e.g. "28-0000071b1c2d").
	BusID string

	// Name is the field name the sensor's value is recorded under.
	Name string
}

// Status describes the outcome of a single sensor read.
type Status int

const (
	// StatusOK means Value holds a valid temperature.
	StatusOK Status = iota

	// StatusAbsent means the device or its input file is not present.
	// This is expected while the bus is still enumerating and is not a failure.
	StatusAbsent

	// StatusSentinel means the sensor reported the power-on default of 85000 m°C.
	StatusSentinel

	// StatusError means the input file exists but could not be read or parsed.
	StatusError
)

// String returns the lowercase status name used in logs and metric labels.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAbsent:
		return "absent"
	case StatusSentinel:
		return "sentinel"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Reading is the result of reading one sensor during one tick.
type Reading struct {
	Spec   Spec
	Status Status

	// Value is the temperature in degrees Celsius. Only meaningful when Status is StatusOK.
	Value float64

	// Raw is the value in milli-degrees as read from the device, when parsing succeeded.
	Raw int64

	// Err is set when Status is StatusError.
	Err error
}

// OK reports whether the reading carries a usable value.
func (r Reading) OK() bool {
	return r.Status == StatusOK
}

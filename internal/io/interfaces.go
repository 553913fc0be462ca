package io

import "context"

// Sensor is one observation channel read by the policy layer once per
// decision step.
type Sensor interface {
	Name() string
	Read(ctx context.Context) ([]float64, error)
}

// ScalarSensorSetter is an optional sensor capability used for values
// computed outside the contact core, such as a segment-to-target distance.
type ScalarSensorSetter interface {
	Set(value float64)
}

// VectorSensorSetter is an optional sensor capability used by scapes that
// publish fixed-width vectors such as the contact flags.
type VectorSensorSetter interface {
	Set(values []float64)
}

// Width reports the number of values a sensor produces, when known.
type Width interface {
	Width() int
}

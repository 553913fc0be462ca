package io

import (
	"context"
	"fmt"
	"sync"
)

const (
	ContactVectorSensorName  = "grasp_contact_vector"
	TargetDistanceSensorName = "grasp_target_distance"
	JointAngleSensorName     = "grasp_joint_angles"
)

type ScalarInputSensor struct {
	name string

	mu    sync.RWMutex
	value float64
}

func NewScalarInputSensor(name string, initial float64) *ScalarInputSensor {
	return &ScalarInputSensor{name: name, value: initial}
}

func (s *ScalarInputSensor) Name() string {
	return s.name
}

func (s *ScalarInputSensor) Read(_ context.Context) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []float64{s.value}, nil
}

func (s *ScalarInputSensor) Set(value float64) {
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
}

func (s *ScalarInputSensor) Width() int {
	return 1
}

// VectorInputSensor holds a fixed-width vector. Set copies its input, so the
// caller may keep reusing its buffer.
type VectorInputSensor struct {
	name  string
	width int

	mu     sync.RWMutex
	values []float64
}

func NewVectorInputSensor(name string, width int) *VectorInputSensor {
	return &VectorInputSensor{name: name, width: width, values: make([]float64, width)}
}

func (s *VectorInputSensor) Name() string {
	return s.name
}

func (s *VectorInputSensor) Width() int {
	return s.width
}

func (s *VectorInputSensor) Read(_ context.Context) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]float64(nil), s.values...), nil
}

// Set overwrites the held values. Inputs shorter than the width are
// zero-padded and longer inputs are truncated.
func (s *VectorInputSensor) Set(values []float64) {
	s.mu.Lock()
	n := copy(s.values, values)
	for i := n; i < len(s.values); i++ {
		s.values[i] = 0
	}
	s.mu.Unlock()
}

// ReadAll reads every sensor in order and concatenates the results into one
// observation vector.
func ReadAll(ctx context.Context, sensors []Sensor) ([]float64, error) {
	width := 0
	for _, sensor := range sensors {
		if w, ok := sensor.(Width); ok {
			width += w.Width()
		}
	}
	out := make([]float64, 0, width)
	for _, sensor := range sensors {
		values, err := sensor.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read sensor %s: %w", sensor.Name(), err)
		}
		out = append(out, values...)
	}
	return out, nil
}

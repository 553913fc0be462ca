package io

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"grasprl/internal/nameid"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrSensorExists    = errors.New("sensor already registered")
	ErrSensorNotFound  = errors.New("sensor not found")
	ErrVersionMismatch = errors.New("registry version mismatch")
	ErrIncompatible    = errors.New("component incompatible with scape")
)

type CompatibilityFn func(scape string) error

// SensorFactory builds a sensor producing width values.
type SensorFactory func(width int) Sensor

type SensorSpec struct {
	Name          string
	Factory       SensorFactory
	SchemaVersion int
	CodecVersion  int
	Compatible    CompatibilityFn
}

type registeredSensor struct {
	factory       SensorFactory
	schemaVersion int
	codecVersion  int
	compatible    CompatibilityFn
}

var sensorRegistry = struct {
	mu sync.RWMutex
	m  map[string]registeredSensor
}{
	m: make(map[string]registeredSensor),
}

func init() {
	initializeDefaultComponents()
}

func initializeDefaultComponents() {
	graspOnly := func(scape string) error {
		if scape != "grasp" {
			return fmt.Errorf("unsupported scape: %s", scape)
		}
		return nil
	}
	specs := []SensorSpec{
		{
			Name:       ContactVectorSensorName,
			Factory:    func(width int) Sensor { return NewVectorInputSensor(ContactVectorSensorName, width) },
			Compatible: graspOnly,
		},
		{
			Name:       JointAngleSensorName,
			Factory:    func(width int) Sensor { return NewVectorInputSensor(JointAngleSensorName, width) },
			Compatible: graspOnly,
		},
		{
			Name:       TargetDistanceSensorName,
			Factory:    func(int) Sensor { return NewScalarInputSensor(TargetDistanceSensorName, 0) },
			Compatible: graspOnly,
		},
	}
	for _, spec := range specs {
		spec.SchemaVersion = SupportedSchemaVersion
		spec.CodecVersion = SupportedCodecVersion
		if err := RegisterSensorWithSpec(spec); err != nil {
			panic(err)
		}
	}
}

func RegisterSensor(name string, factory SensorFactory) error {
	return RegisterSensorWithSpec(SensorSpec{
		Name:          name,
		Factory:       factory,
		SchemaVersion: SupportedSchemaVersion,
		CodecVersion:  SupportedCodecVersion,
	})
}

func RegisterSensorWithSpec(spec SensorSpec) error {
	if spec.Name == "" {
		return errors.New("sensor name is required")
	}
	if spec.Factory == nil {
		return errors.New("sensor factory is required")
	}
	if spec.SchemaVersion != SupportedSchemaVersion || spec.CodecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, spec.SchemaVersion, spec.CodecVersion)
	}

	sensorRegistry.mu.Lock()
	defer sensorRegistry.mu.Unlock()

	if _, exists := sensorRegistry.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrSensorExists, spec.Name)
	}
	sensorRegistry.m[spec.Name] = registeredSensor{
		factory:       spec.Factory,
		schemaVersion: spec.SchemaVersion,
		codecVersion:  spec.CodecVersion,
		compatible:    spec.Compatible,
	}
	return nil
}

func ResolveSensor(name, scape string, width int) (Sensor, error) {
	sensorRegistry.mu.RLock()
	entry, ok := sensorRegistry.m[name]
	sensorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSensorNotFound, name)
	}
	if err := sensorCompatibilityError(name, entry, nameid.Scape(scape)); err != nil {
		return nil, err
	}
	return entry.factory(width), nil
}

func SensorCompatibleWithScape(name, scape string) bool {
	sensorRegistry.mu.RLock()
	entry, ok := sensorRegistry.m[name]
	sensorRegistry.mu.RUnlock()
	if !ok {
		return false
	}
	return sensorCompatibilityError(name, entry, nameid.Scape(scape)) == nil
}

func ListSensorsForScape(scape string) []string {
	normalized := nameid.Scape(scape)

	sensorRegistry.mu.RLock()
	defer sensorRegistry.mu.RUnlock()

	names := make([]string, 0, len(sensorRegistry.m))
	for name, entry := range sensorRegistry.m {
		if sensorCompatibilityError(name, entry, normalized) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListSensors() []string {
	sensorRegistry.mu.RLock()
	defer sensorRegistry.mu.RUnlock()

	names := make([]string, 0, len(sensorRegistry.m))
	for n := range sensorRegistry.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sensorCompatibilityError(name string, entry registeredSensor, scape string) error {
	if entry.schemaVersion != SupportedSchemaVersion || entry.codecVersion != SupportedCodecVersion {
		return fmt.Errorf("%w: %s", ErrVersionMismatch, name)
	}
	if entry.compatible != nil {
		if err := entry.compatible(scape); err != nil {
			return fmt.Errorf("%w: sensor=%s: %v", ErrIncompatible, name, err)
		}
	}
	return nil
}

func resetRegistriesForTests() {
	sensorRegistry.mu.Lock()
	sensorRegistry.m = make(map[string]registeredSensor)
	sensorRegistry.mu.Unlock()

	initializeDefaultComponents()
}

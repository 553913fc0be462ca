package scape

import (
	"context"
	"fmt"

	protoio "grasprl/internal/io"
	"grasprl/internal/morphology"
)

// observation holds the sensors a morphology exposes to the policy layer and
// routes each step's data to them.
type observation struct {
	sensors  []protoio.Sensor
	layout   []string
	contact  protoio.VectorSensorSetter
	joints   protoio.VectorSensorSetter
	distance protoio.ScalarSensorSetter
}

func newObservation(m morphology.Morphology) (*observation, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: morphology is required", ErrInvalidEpisode)
	}
	sensors, err := morphology.ResolveSensors(GraspScapeName, m)
	if err != nil {
		return nil, err
	}
	obs := &observation{sensors: sensors, layout: make([]string, 0, len(sensors))}
	for _, sensor := range sensors {
		obs.layout = append(obs.layout, sensor.Name())
		switch sensor.Name() {
		case protoio.ContactVectorSensorName:
			obs.contact, _ = sensor.(protoio.VectorSensorSetter)
		case protoio.JointAngleSensorName:
			obs.joints, _ = sensor.(protoio.VectorSensorSetter)
		case protoio.TargetDistanceSensorName:
			obs.distance, _ = sensor.(protoio.ScalarSensorSetter)
		}
	}
	return obs, nil
}

// setKinematics publishes the externally computed inputs carried by report.
// Absent values leave the previous reading in place.
func (o *observation) setKinematics(report StepReport) {
	if o.joints != nil && report.JointAngles != nil {
		o.joints.Set(report.JointAngles)
	}
	if o.distance != nil && report.TargetDistance != nil {
		o.distance.Set(*report.TargetDistance)
	}
}

func (o *observation) read(ctx context.Context) ([]float64, error) {
	return protoio.ReadAll(ctx, o.sensors)
}

package io

import (
	"context"
	"testing"
)

func TestVectorInputSensorCopiesAndPads(t *testing.T) {
	sensor := NewVectorInputSensor(ContactVectorSensorName, 3)
	buf := []float64{1, 0, 1}
	sensor.Set(buf)
	buf[0] = 7

	got, err := sensor.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got[0] != 1 || got[1] != 0 || got[2] != 1 {
		t.Fatalf("expected copied values, got %v", got)
	}

	sensor.Set([]float64{1})
	got, _ = sensor.Read(context.Background())
	if got[0] != 1 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("expected zero padding, got %v", got)
	}

	sensor.Set([]float64{1, 1, 1, 1})
	got, _ = sensor.Read(context.Background())
	if len(got) != 3 {
		t.Fatalf("expected truncation to width, got %v", got)
	}
}

func TestReadAllConcatenatesInOrder(t *testing.T) {
	contact := NewVectorInputSensor(ContactVectorSensorName, 2)
	contact.Set([]float64{0, 1})
	distance := NewScalarInputSensor(TargetDistanceSensorName, 0)
	distance.Set(0.42)

	obs, err := ReadAll(context.Background(), []Sensor{contact, distance})
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(obs) != 3 || obs[0] != 0 || obs[1] != 1 || obs[2] != 0.42 {
		t.Fatalf("unexpected observation: %v", obs)
	}
}

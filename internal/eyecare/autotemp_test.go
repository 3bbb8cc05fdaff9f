package eyecare

import (
	"testing"
	"time"
)

// Helsinki, same defaults the config ships with
const (
	testLat = 60.1695
	testLon = 24.9354
)

func TestTargetTemperatureSummerNoon(t *testing.T) {
	noon := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	got := TargetTemperature(noon, testLat, testLon, 6500, 3400)
	if got != 6500 {
		t.Errorf("midsummer noon should use the day temperature, got %d", got)
	}
}

func TestTargetTemperatureWinterMidnight(t *testing.T) {
	midnight := time.Date(2026, 12, 21, 0, 0, 0, 0, time.UTC)
	got := TargetTemperature(midnight, testLat, testLon, 6500, 3400)
	if got != 3400 {
		t.Errorf("midwinter midnight should use the night temperature, got %d", got)
	}
}

func TestTargetTemperatureStaysInRange(t *testing.T) {
	// Whole-day sweep across two solstices: every target must land
	// between the night and day temperatures
	days := []time.Time{
		time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 21, 0, 0, 0, 0, time.UTC),
	}

	for _, day := range days {
		for hour := 0; hour < 24; hour++ {
			at := day.Add(time.Duration(hour) * time.Hour)
			got := TargetTemperature(at, testLat, testLon, 6500, 3400)
			if got < 3400 || got > 6500 {
				t.Errorf("target at %v out of range: %d", at, got)
			}
		}
	}
}

func TestTargetTemperatureTwilightBlends(t *testing.T) {
	// Scan a midsummer day at fine granularity; at some instant the sun
	// crosses the twilight band and the target must take an
	// intermediate value rather than snapping between the endpoints.
	day := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	sawIntermediate := false
	for minute := 0; minute < 24*60; minute += 5 {
		at := day.Add(time.Duration(minute) * time.Minute)
		got := TargetTemperature(at, testLat, testLon, 6500, 3400)
		if got > 3400 && got < 6500 {
			sawIntermediate = true
			break
		}
	}
	if !sawIntermediate {
		t.Error("expected an intermediate temperature during twilight")
	}
}

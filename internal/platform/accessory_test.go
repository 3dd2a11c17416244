package platform

import (
	"testing"

	"github.com/purebridge/purebridge-core/internal/bridges/dyson"
	"github.com/purebridge/purebridge-core/internal/device"
	"github.com/purebridge/purebridge-core/internal/infrastructure/config"
)

// =============================================================================
// Accessory Declaration Tests
// =============================================================================

func TestBuildAccessoryBaseline(t *testing.T) {
	acc := BuildAccessory("NK6-EU-MHA0000A", "Office", device.Lookup("438"), config.DeviceConfig{})

	if acc.Model != "Dyson Pure Cool (Tower)" {
		t.Errorf("Model = %q", acc.Model)
	}

	// Power, mode and fan speed are always declared.
	for _, control := range []dyson.Control{dyson.ControlPower, dyson.ControlTargetMode, dyson.ControlFanSpeed} {
		if !acc.HasControl(control) {
			t.Errorf("missing baseline control %s", control)
		}
	}

	// 438 oscillates but has no heater or humidifier.
	if !acc.HasControl(dyson.ControlOscillation) {
		t.Error("oscillation not declared for 438")
	}
	for _, control := range []dyson.Control{
		dyson.ControlHeatingMode, dyson.ControlHeatingTarget,
		dyson.ControlHumidifierMode, dyson.ControlHumidityTarget,
	} {
		if acc.HasControl(control) {
			t.Errorf("control %s declared without hardware support", control)
		}
	}

	// Optional controls stay hidden until enabled.
	if acc.HasControl(dyson.ControlNightMode) || acc.HasControl(dyson.ControlJetFocus) ||
		acc.HasControl(dyson.ControlContinuousMonitoring) {
		t.Error("optional control declared without being enabled")
	}
}

func TestBuildAccessoryOptionalControls(t *testing.T) {
	cfg := config.DeviceConfig{
		IsNightModeEnabled:            true,
		IsJetFocusEnabled:             true,
		IsContinuousMonitoringEnabled: true,
	}
	acc := BuildAccessory("NK6-EU-MHA0000A", "Office", device.Lookup("438"), cfg)

	for _, control := range []dyson.Control{
		dyson.ControlNightMode, dyson.ControlJetFocus, dyson.ControlContinuousMonitoring,
	} {
		if !acc.HasControl(control) {
			t.Errorf("enabled control %s not declared", control)
		}
	}
}

func TestBuildAccessoryJetFocusNeedsHardware(t *testing.T) {
	// 455 has jet focus hardware, 475 does not.
	cfg := config.DeviceConfig{IsJetFocusEnabled: true}

	if !BuildAccessory("A", "", device.Lookup("455"), cfg).HasControl(dyson.ControlJetFocus) {
		t.Error("jet focus not declared on capable hardware")
	}
	if BuildAccessory("B", "", device.Lookup("475"), cfg).HasControl(dyson.ControlJetFocus) {
		t.Error("jet focus declared on hardware without it")
	}
}

func TestBuildAccessoryHeatingRange(t *testing.T) {
	acc := BuildAccessory("A", "", device.Lookup("527"), config.DeviceConfig{})

	var target *ControlDecl
	for i := range acc.Controls {
		if acc.Controls[i].Control == dyson.ControlHeatingTarget {
			target = &acc.Controls[i]
		}
	}
	if target == nil {
		t.Fatal("heating target not declared for 527")
	}
	if target.Min != 0 || target.Max != 37 || target.Step != 0.1 {
		t.Errorf("heating target range = [%v,%v] step %v, want [0,37] step 0.1", target.Min, target.Max, target.Step)
	}
}

func TestBuildAccessoryHumidityRange(t *testing.T) {
	tests := []struct {
		name      string
		fullRange bool
		wantMin   float64
		wantMax   float64
	}{
		{"default clamp", false, 30, 70},
		{"full range", true, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DeviceConfig{IsFullRangeHumidityEnabled: tt.fullRange}
			acc := BuildAccessory("A", "", device.Lookup("358"), cfg)

			var target *ControlDecl
			for i := range acc.Controls {
				if acc.Controls[i].Control == dyson.ControlHumidityTarget {
					target = &acc.Controls[i]
				}
			}
			if target == nil {
				t.Fatal("humidity target not declared for 358")
			}
			if target.Min != tt.wantMin || target.Max != tt.wantMax {
				t.Errorf("range = [%v,%v], want [%v,%v]", target.Min, target.Max, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestBuildAccessoryFanSpeedRange(t *testing.T) {
	acc := BuildAccessory("A", "", device.Lookup("438"), config.DeviceConfig{})

	for _, c := range acc.Controls {
		if c.Control != dyson.ControlFanSpeed {
			continue
		}
		if c.Min != 0 || c.Max != 100 || c.Step != 10 {
			t.Errorf("fan speed range = [%v,%v] step %v, want [0,100] step 10", c.Min, c.Max, c.Step)
		}
		return
	}
	t.Fatal("fan speed not declared")
}

func TestBuildAccessorySensors(t *testing.T) {
	cfg := config.DeviceConfig{
		IsTemperatureSensorEnabled: true,
		IsHumiditySensorEnabled:    true,
		IsAirQualitySensorEnabled:  true,
	}

	sensorNames := func(acc Accessory) map[string]SensorDecl {
		named := make(map[string]SensorDecl, len(acc.Sensors))
		for _, s := range acc.Sensors {
			named[s.Name] = s
		}
		return named
	}

	t.Run("advanced hardware", func(t *testing.T) {
		named := sensorNames(BuildAccessory("A", "", device.Lookup("438"), cfg))
		for _, want := range []string{"temperature", "humidity", "air_quality", "pm2_5", "pm10", "voc", "filter_life"} {
			if _, ok := named[want]; !ok {
				t.Errorf("missing sensor %s", want)
			}
		}
		if temp := named["temperature"]; temp.Min != -50 || temp.Max != 100 {
			t.Errorf("temperature range = [%v,%v], want [-50,100]", temp.Min, temp.Max)
		}
	})

	t.Run("basic hardware", func(t *testing.T) {
		named := sensorNames(BuildAccessory("A", "", device.Lookup("455"), cfg))
		if _, ok := named["air_quality"]; !ok {
			t.Error("missing air_quality")
		}
		for _, detail := range []string{"pm2_5", "pm10", "voc"} {
			if _, ok := named[detail]; ok {
				t.Errorf("detail sensor %s declared on basic hardware", detail)
			}
		}
	})

	t.Run("sensors disabled", func(t *testing.T) {
		named := sensorNames(BuildAccessory("A", "", device.Lookup("438"), config.DeviceConfig{}))
		if len(named) != 1 {
			t.Errorf("sensors = %v, want only filter_life", named)
		}
		if _, ok := named["filter_life"]; !ok {
			t.Error("filter_life always declared")
		}
	})
}

func TestBuildAccessoryNameFallsBackToModel(t *testing.T) {
	acc := BuildAccessory("A", "", device.Lookup("469"), config.DeviceConfig{})
	if acc.Name != acc.Model {
		t.Errorf("Name = %q, want the model name %q", acc.Name, acc.Model)
	}
}

package orbit

import (
	"math"
	"testing"
)

func TestEccentricAnomalyRoundTrip(t *testing.T) {
	es := []float64{0.0, 0.1, 0.3, 0.6, 0.8, 0.9, 0.95}
	for _, e := range es {
		for k := 0; k < 20; k++ {
			m := float64(k) / 20 * 2 * math.Pi
			ea, err := EccentricAnomaly(m, e)
			if err != nil {
				t.Fatalf("e=%g m=%g: %v", e, m, err)
			}
			mBack := ea - e*math.Sin(ea)
			// wrap both to the same branch before comparing
			diff := math.Mod(mBack-m, 2*math.Pi)
			if diff > math.Pi {
				diff -= 2 * math.Pi
			} else if diff < -math.Pi {
				diff += 2 * math.Pi
			}
			if math.Abs(diff) > 1e-10 {
				t.Errorf("e=%g m=%g: round trip mismatch got %g want %g", e, m, mBack, m)
			}
		}
	}
}

func TestEccentricAnomalyCircular(t *testing.T) {
	ea, err := EccentricAnomaly(1.234, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ea-1.234) > 1e-12 {
		t.Errorf("circular orbit should have E=M, got %g want %g", ea, 1.234)
	}
}

func TestTrueAnomalyAtPeriastron(t *testing.T) {
	nu := TrueAnomaly(0, 0.5)
	if math.Abs(nu) > 1e-12 {
		t.Errorf("true anomaly at E=0 should be 0, got %g", nu)
	}
}

func TestPropagateCircular(t *testing.T) {
	st, err := Propagate(0.25, 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(st.R-1) > 1e-10 {
		t.Errorf("circular orbit r should be 1, got %g", st.R)
	}
}

func TestLightTimeSymmetry(t *testing.T) {
	// Property 8: with q=1 and e=0, the light-time correction to T0 is
	// exactly zero (cos(omega1) term survives but e=0 kills it).
	dt := LightTimeCorrection(10, 0, 0.3, math.Pi/2, 1)
	if dt != 0 {
		t.Errorf("e=0 should give zero light-time correction to T0, got %g", dt)
	}
}

func TestLightTimeDisabledForNonPositiveA(t *testing.T) {
	dt := LightTimeCorrection(0, 0.3, 0.1, math.Pi/2, 1)
	if dt != 0 {
		t.Errorf("a<=0 should disable light-time correction, got %g", dt)
	}
}

func TestEccentricAnomalyRejectsInvalidEccentricity(t *testing.T) {
	if _, err := EccentricAnomaly(1.0, 1.0); err == nil {
		t.Error("expected error for e=1")
	}
	if _, err := EccentricAnomaly(1.0, -0.1); err == nil {
		t.Error("expected error for e<0")
	}
}

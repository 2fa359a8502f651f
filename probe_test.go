package asset_shrinker

import (
	"bytes"
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/gen2brain/jpegli"
)

func TestLookupProbe(t *testing.T) {
	for _, name := range []string{"jpeg", "jpegli"} {
		enc, err := LookupProbe(name)
		if err != nil {
			t.Errorf("Expected %s to be available: %v", name, err)
		} else if enc.Name != name {
			t.Errorf("Expected encoder named %s, got %s", name, enc.Name)
		}
	}
	if _, err := LookupProbe("bmp"); !errors.Is(err, ErrUnknownProbe) {
		t.Errorf("Expected ErrUnknownProbe, got %v", err)
	}
	if !slices.IsSorted(ProbeNames()) {
		t.Errorf("Expected sorted names, got %v", ProbeNames())
	}
}

func TestJPEGProbeShrinksWithQuality(t *testing.T) {
	enc, err := LookupProbe("jpeg")
	if err != nil {
		t.Fatal(err)
	}
	img := noiseImage(64, 64)
	var high, low bytes.Buffer
	if err = enc.Encode(&high, img, 85); err != nil {
		t.Fatal(err)
	}
	if err = enc.Encode(&low, img, 15); err != nil {
		t.Fatal(err)
	}
	if low.Len() >= high.Len() {
		t.Errorf("Expected quality 15 (%d bytes) to be smaller than 85 (%d bytes)", low.Len(), high.Len())
	}
	if _, _, err = image.Decode(&low); err != nil {
		t.Errorf("Probe output does not decode: %v", err)
	}
}

func TestJPEGLIProbeKeepsEncoderDefaults(t *testing.T) {
	enc, err := LookupProbe("jpegli")
	if err != nil {
		t.Fatal(err)
	}
	img := noiseImage(64, 64)
	var probe, defaults bytes.Buffer
	if err = enc.Encode(&probe, img, jpegli.DefaultQuality); err != nil {
		t.Fatal(err)
	}
	if err = jpegli.Encode(&defaults, img, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(probe.Bytes(), defaults.Bytes()) {
		t.Errorf("Expected the same output as the encoder defaults, got %d bytes instead of %d", probe.Len(), defaults.Len())
	}
}

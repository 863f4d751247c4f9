package theme

import "testing"

func TestByNameFallsBack(t *testing.T) {
	if got := ByName("nope").Name; got != FlexokiDark.Name {
		t.Errorf("ByName(nope) = %s, want %s", got, FlexokiDark.Name)
	}
	if got := ByName("tokyo-night").Name; got != "tokyo-night" {
		t.Errorf("ByName(tokyo-night) = %s", got)
	}
}

func TestNextWraps(t *testing.T) {
	names := Names()
	name := names[len(names)-1]
	if got := Next(name); got != names[0] {
		t.Errorf("Next(%s) = %s, want %s", name, got, names[0])
	}
	if got := Next("unknown"); got != names[0] {
		t.Errorf("Next(unknown) = %s, want %s", got, names[0])
	}
}

func TestKnown(t *testing.T) {
	for _, n := range Names() {
		if !Known(n) {
			t.Errorf("Known(%s) = false", n)
		}
	}
	if Known("solarized") {
		t.Error("Known(solarized) = true")
	}
}

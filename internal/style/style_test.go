package style

import (
	"bytes"
	"testing"
)

func TestShouldUseColorHonoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ShouldUseColor() {
		t.Fatalf("expected NO_COLOR to disable color")
	}
}

func TestPrefixedLinesAreReadableWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	Fprintok(&buf, "wrote %d files", 2)
	Fprintwarn(&buf, "stale state")
	Fprintfail(&buf, "broken")

	// Tests never run on a TTY, so the ASCII profile strips escapes.
	want := "✓ wrote 2 files\n⚠ stale state\n✗ broken\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
	if Confidence("high") != "high" || Confidence("other") != "other" {
		t.Fatalf("expected plain confidence labels without color")
	}
}

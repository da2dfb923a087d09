package constants

import "testing"

func TestNormalizeExt(t *testing.T) {
	cases := map[string]string{
		".PDF": "pdf",
		"JPG":  "jpg",
		".png": "png",
		"":     "",
	}
	for in, want := range cases {
		if got := NormalizeExt(in); got != want {
			t.Errorf("NormalizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsProcessedName(t *testing.T) {
	processed := []string{
		"2025-12-23 - FloridaPower - Electric Bill.pdf",
		"2003 - Family - Beach Vacation.jpg",
		"0000 - Person - Somewhere.png",
		"Unprocessed - scan_0042.pdf",
	}
	for _, name := range processed {
		if !IsProcessedName(name) {
			t.Errorf("IsProcessedName(%q) = false, want true", name)
		}
	}

	raw := []string{
		"scan_0042.pdf",
		"IMG_1234.jpg",
		"20251223-scan.pdf", // no " - " separator
		"invoice 2025.pdf",
	}
	for _, name := range raw {
		if IsProcessedName(name) {
			t.Errorf("IsProcessedName(%q) = true, want false", name)
		}
	}
}

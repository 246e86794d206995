package util

import "testing"

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestSanitizeTextDropsDeleteAndBOM(t *testing.T) {
	out := SanitizeText("\ufeff  Chapter 1\x7f\x00\n细胞分裂  ")
	if out != "Chapter 1\n细胞分裂" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfio

import "testing"

func TestNormalizeFontName(t *testing.T) {
	tests := []struct {
		raw        string
		wantFamily string
		wantBold   bool
		wantItalic bool
	}{
		{"ABCDEF+Minion-Bold", "Minion", true, false},
		{"Minion-Italic", "Minion", false, true},
		{"GHIJKL+ScalaSans-BoldItalic", "ScalaSans", true, true},
		{"Helvetica", "Helvetica", false, false},
		{"Times New Roman,Bold", "Times New Roman", true, false},
		{"Futura-Oblique", "Futura", false, true},
		{"MNOPQR+BookmaniaBlack", "BookmaniaBlack", true, false},
	}

	for _, tt := range tests {
		family, bold, italic := NormalizeFontName(tt.raw)
		if family != tt.wantFamily || bold != tt.wantBold || italic != tt.wantItalic {
			t.Errorf("NormalizeFontName(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.raw, family, bold, italic, tt.wantFamily, tt.wantBold, tt.wantItalic)
		}
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open("/nonexistent/book.pdf"); err == nil {
		t.Error("expected error for missing file")
	}
}

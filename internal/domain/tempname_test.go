package domain

import (
	"strings"
	"testing"
)

func TestTempName_RoundTrip(t *testing.T) {
	token := strings.Repeat("ab", 16)
	name := TempName(token, "cat 1.jpg")

	if !IsTempName(name) {
		t.Fatalf("IsTempName(%q) = false", name)
	}
	orig, ok := OriginalFromTemp(name)
	if !ok || orig != "cat 1.jpg" {
		t.Errorf("OriginalFromTemp = %q, %v; want %q, true", orig, ok, "cat 1.jpg")
	}
}

func TestIsTempName(t *testing.T) {
	hex := strings.Repeat("0f", 16)
	tests := []struct {
		name string
		want bool
	}{
		{name: "__TMP__" + hex + "__x.jpg", want: true},
		{name: "__TMP__" + hex + "____x.jpg", want: true},
		{name: "__TMP__" + strings.ToUpper(hex) + "__x.jpg", want: false},
		{name: "__TMP__" + hex[:30] + "__x.jpg", want: false},
		{name: "__TMP__" + hex + "__", want: false},
		{name: "DOG-1.jpg", want: false},
		{name: "__TMP__DOG.jpg", want: false},
	}

	for _, tt := range tests {
		if got := IsTempName(tt.name); got != tt.want {
			t.Errorf("IsTempName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLowerExt(t *testing.T) {
	if got := LowerExt("/x/CAT.JPG"); got != ".jpg" {
		t.Errorf("LowerExt = %q, want .jpg", got)
	}
	if got := LowerExt("/x/noext"); got != "" {
		t.Errorf("LowerExt = %q, want empty", got)
	}
}

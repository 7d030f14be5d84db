package simhash

import (
	"strings"
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	tokens := strings.Fields("div.p24_price span div.p24_address h1")
	if Fingerprint(tokens) != Fingerprint(tokens) {
		t.Error("identical tokens produced different fingerprints")
	}
}

func TestFingerprint_Empty(t *testing.T) {
	if fp := Fingerprint(nil); fp != 0 {
		t.Errorf("empty input should produce fingerprint 0, got: %064b", fp)
	}
	if fp := Fingerprint([]string{"hello"}); fp == 0 {
		t.Error("single token should produce a non-zero fingerprint")
	}
}

func TestFingerprint_SimilarVsDifferent(t *testing.T) {
	a := strings.Fields("the quick brown fox jumps over the lazy dog")
	b := strings.Fields("the quick brown fox leaps over the lazy dog")
	c := strings.Fields("completely unrelated content about quantum physics and mathematics")

	if d := Distance(Fingerprint(a), Fingerprint(b)); d > 10 {
		t.Errorf("similar token lists have too large distance: %d", d)
	}
	if d := Distance(Fingerprint(a), Fingerprint(c)); d < 5 {
		t.Errorf("different token lists have too small distance: %d", d)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	if !Similar(0xF0, 0xF1, 1) {
		t.Error("one bit apart should be similar at threshold 1")
	}
	if Similar(0xF0, 0xF3, 1) {
		t.Error("two bits apart should not be similar at threshold 1")
	}
}

func TestHex(t *testing.T) {
	if got := Hex(0xab); got != "00000000000000ab" {
		t.Errorf("Hex(0xab) = %q", got)
	}
}

const listingLayout = `<html><body>
<div class="p24_listingTitle"><h1>%s</h1></div>
<div class="p24_mBM"><span class="p24_price">%s</span><span class="p24_address">x</span></div>
<ul class="p24_features"><li>a</li><li>b</li></ul>
</body></html>`

func TestFingerprintLayout_IgnoresText(t *testing.T) {
	a := FingerprintLayout(strings.NewReplacer("%s", "House in Sea Point").Replace(listingLayout))
	b := FingerprintLayout(strings.NewReplacer("%s", "Flat in Durban").Replace(listingLayout))
	if a != b {
		t.Errorf("same layout with different text should match, distance %d", Distance(a, b))
	}
}

func TestFingerprintLayout_ClassRename(t *testing.T) {
	orig := strings.ReplaceAll(listingLayout, "%s", "x")
	renamed := strings.NewReplacer("p24_price", "price-v2", "p24_address", "address-v2", "p24_mBM", "summary").Replace(orig)

	a, b := FingerprintLayout(orig), FingerprintLayout(renamed)
	if a == b {
		t.Error("renamed classes should change the layout fingerprint")
	}
}

func TestFingerprintLayout_Empty(t *testing.T) {
	if fp := FingerprintLayout(""); fp != 0 {
		t.Errorf("empty HTML should produce fingerprint 0, got: %064b", fp)
	}
}

func TestLayoutTokens(t *testing.T) {
	got := layoutTokens(`<div class=" a  b"><img class="x" src="y"/><p id="q">t</p></div>`)
	want := []string{"div.a", "img.x", "p"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("layoutTokens = %q, want %q", got, want)
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker(1)

	if d, drifted := tr.Observe("property24", 0); d != 0 || drifted {
		t.Error("zero fingerprint must be ignored")
	}
	if _, drifted := tr.Observe("property24", 0xF0); drifted {
		t.Error("first observation becomes the baseline")
	}
	if d, drifted := tr.Observe("property24", 0xF1); d != 1 || drifted {
		t.Errorf("Observe = (%d, %v), want (1, false)", d, drifted)
	}
	if d, drifted := tr.Observe("property24", 0x0F); d != 8 || !drifted {
		t.Errorf("Observe = (%d, %v), want (8, true)", d, drifted)
	}
	if _, drifted := tr.Observe("remax", 0x0F); drifted {
		t.Error("baselines are per key")
	}

	tr.Reset("property24")
	if _, drifted := tr.Observe("property24", 0x0F); drifted {
		t.Error("Reset should clear the baseline")
	}
}

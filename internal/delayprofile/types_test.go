package delayprofile

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slipstream/delaygate/internal/downloader/types"
)

func TestOrder_Less(t *testing.T) {
	tests := []struct {
		name string
		a, b Order
		want bool
	}{
		{"lower rank first", Ranked(1), Ranked(2), true},
		{"higher rank later", Ranked(3), Ranked(2), false},
		{"equal ranks", Ranked(2), Ranked(2), false},
		{"rank before fallback", Ranked(1_000_000), Fallback, true},
		{"fallback after rank", Fallback, Ranked(1), false},
		{"fallback not before fallback", Fallback, Fallback, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.want {
				t.Errorf("%v.Less(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestOrder_JSON(t *testing.T) {
	for _, o := range []Order{Ranked(0), Ranked(7), Fallback} {
		data, err := json.Marshal(o)
		if err != nil {
			t.Fatalf("Marshal(%v) error = %v", o, err)
		}
		var got Order
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if got != o {
			t.Errorf("round trip of %v = %v", o, got)
		}
	}

	data, _ := json.Marshal(Fallback)
	if string(data) != `"fallback"` {
		t.Errorf("Marshal(Fallback) = %s", data)
	}

	var o Order
	if err := json.Unmarshal([]byte(`"soon"`), &o); err == nil {
		t.Error("Unmarshal of unknown literal should fail")
	}
}

func TestOrder_YAML(t *testing.T) {
	var doc struct {
		A Order `yaml:"a"`
		B Order `yaml:"b"`
	}
	if err := yaml.Unmarshal([]byte("a: 3\nb: fallback\n"), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if doc.A != Ranked(3) || !doc.B.IsFallback() {
		t.Errorf("decoded = %+v", doc)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != "a: 3\nb: fallback\n" {
		t.Errorf("Marshal() = %q", out)
	}
}

func TestProfile_DelayFor(t *testing.T) {
	p := Profile{
		UsenetDelay:      15,
		TorrentDelay:     60,
		UsenetDelayMode:  DelayModeCutoff,
		TorrentDelayMode: DelayModeFirst,
	}

	d, mode := p.DelayFor(types.ProtocolTorrent)
	if d != time.Hour || mode != DelayModeFirst {
		t.Errorf("torrent = %v/%s", d, mode)
	}
	d, mode = p.DelayFor(types.ProtocolUsenet)
	if d != 15*time.Minute || mode != DelayModeCutoff {
		t.Errorf("usenet = %v/%s", d, mode)
	}
}

func TestProfile_AppliesTo(t *testing.T) {
	tagged := Profile{Tags: []int64{2, 5}}
	untagged := Profile{Tags: []int64{}}

	if !tagged.AppliesTo([]int64{5, 9}) {
		t.Error("tagged profile should apply to intersecting tags")
	}
	if tagged.AppliesTo([]int64{1}) {
		t.Error("tagged profile should not apply to disjoint tags")
	}
	if tagged.AppliesTo(nil) {
		t.Error("tagged profile should not apply to untagged series")
	}
	if !untagged.AppliesTo(nil) || !untagged.AppliesTo([]int64{3}) {
		t.Error("untagged profile should apply to every series")
	}
}

func TestInput_Validate(t *testing.T) {
	zero := 0
	tests := []struct {
		name      string
		input     Input
		isDefault bool
		wantErr   bool
	}{
		{"tagged profile", Input{Tags: []int64{1}, TorrentDelay: 60}, false, false},
		{"default without tags", Input{}, true, false},
		{"default with tags", Input{Tags: []int64{1}}, true, true},
		{"tagged profile without tags", Input{}, false, true},
		{"negative delay", Input{Tags: []int64{1}, UsenetDelay: -1}, false, true},
		{"unknown mode", Input{Tags: []int64{1}, UsenetDelayMode: "later"}, false, true},
		{"unknown protocol", Input{Tags: []int64{1}, PreferredProtocol: "ftp"}, false, true},
		{"order below one", Input{Tags: []int64{1}, Order: &zero}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			in.normalize()
			err := in.validate(tt.isDefault)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("validate() error = %v, want ErrInvalidProfile", err)
			}
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]int64{5, 1, 5, 3})
	want := []int64{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("normalizeTags() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("normalizeTags() = %v, want %v", got, want)
		}
	}
	if normalizeTags(nil) == nil {
		t.Error("normalizeTags(nil) should return an empty slice")
	}
}

package quality

import (
	"encoding/json"
	"testing"
)

func TestGetQualityByID(t *testing.T) {
	tests := []struct {
		id       int
		wantName string
		wantOK   bool
	}{
		{1, "SDTV", true},
		{4, "HDTV-720p", true},
		{11, "Bluray-1080p", true},
		{17, "Remux-2160p", true},
		{0, "", false},
		{100, "", false},
	}

	for _, tt := range tests {
		q, ok := GetQualityByID(tt.id)
		if ok != tt.wantOK {
			t.Errorf("GetQualityByID(%d) ok = %v, want %v", tt.id, ok, tt.wantOK)
		}
		if q.Name != tt.wantName {
			t.Errorf("GetQualityByID(%d) name = %q, want %q", tt.id, q.Name, tt.wantName)
		}
	}
}

func TestGetQualityByName(t *testing.T) {
	q, ok := GetQualityByName("WEBDL-1080p")
	if !ok || q.ID != 10 {
		t.Fatalf("GetQualityByName(WEBDL-1080p) = %+v, %v", q, ok)
	}
	if _, ok := GetQualityByName("Betamax"); ok {
		t.Error("expected unknown name to miss")
	}
}

func TestProfile_HighestAllowed(t *testing.T) {
	hd := HD1080pProfile()
	q, ok := hd.HighestAllowed()
	if !ok {
		t.Fatal("expected HD-1080p to have an allowed quality")
	}
	if q.Name != "Remux-1080p" {
		t.Errorf("HighestAllowed() = %s, want Remux-1080p", q.Name)
	}

	none := Profile{Name: "None", Items: []QualityItem{
		{Quality: qualityByID[1]},
		{Quality: qualityByID[4]},
	}}
	if _, ok := none.HighestAllowed(); ok {
		t.Error("expected no ceiling when nothing is allowed")
	}
}

func TestProfile_CutoffQuality(t *testing.T) {
	p := DefaultProfile()
	q, ok := p.CutoffQuality()
	if !ok || q.Name != "Bluray-1080p" {
		t.Errorf("CutoffQuality() = %+v, %v", q, ok)
	}

	p.Cutoff = 999
	if _, ok := p.CutoffQuality(); ok {
		t.Error("expected unknown cutoff to miss")
	}
}

func TestProfile_IsAcceptable(t *testing.T) {
	p := HD1080pProfile()

	tests := []struct {
		name string
		id   int
		want bool
	}{
		{"SDTV not allowed", 1, false},
		{"HDTV-720p allowed", 4, true},
		{"Bluray-1080p allowed", 11, true},
		{"Bluray-2160p not allowed", 16, false},
		{"unknown not allowed", 99, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsAcceptable(tt.id); got != tt.want {
				t.Errorf("IsAcceptable(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestProfile_Validate(t *testing.T) {
	p := HD1080pProfile()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	p.Cutoff = 1 // SDTV is not allowed in HD-1080p
	if err := p.Validate(); err == nil {
		t.Error("expected error for disallowed cutoff")
	}

	dup := DefaultProfile()
	dup.Items = append(dup.Items, dup.Items[0])
	if err := dup.Validate(); err == nil {
		t.Error("expected error for duplicated quality")
	}
}

func TestModel_String(t *testing.T) {
	sdtv := ModelByID(1)
	if sdtv.String() != "SDTV" {
		t.Errorf("String() = %q", sdtv.String())
	}
	sdtv.Revision.Version = 2
	if sdtv.String() != "SDTV Proper" {
		t.Errorf("String() = %q", sdtv.String())
	}
	if got := ModelByID(404).String(); got != "Unknown(404)" {
		t.Errorf("String() = %q", got)
	}
}

func TestModel_UnmarshalJSON_DefaultsRevision(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantVersion int
		wantReal    int
	}{
		{"no revision", `{"quality":{"id":11}}`, 1, 0},
		{"empty revision", `{"quality":{"id":11},"revision":{}}`, 1, 0},
		{"zero version", `{"quality":{"id":11},"revision":{"version":0,"real":1}}`, 1, 1},
		{"proper", `{"quality":{"id":11},"revision":{"version":2}}`, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Model
			if err := json.Unmarshal([]byte(tt.data), &m); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if m.Quality.ID != 11 || m.Quality.Name != "Bluray-1080p" {
				t.Errorf("Quality = %+v, want Bluray-1080p", m.Quality)
			}
			if m.Revision.Version != tt.wantVersion || m.Revision.Real != tt.wantReal {
				t.Errorf("Revision = %+v, want version %d real %d", m.Revision, tt.wantVersion, tt.wantReal)
			}
		})
	}
}

func TestRevision_CompareTreatsZeroAsFirst(t *testing.T) {
	if got := (Revision{}).Compare(Revision{Version: 1}); got != 0 {
		t.Errorf("Compare() = %d, want 0", got)
	}
	if got := (Revision{Version: 2}).Compare(Revision{}); got != 1 {
		t.Errorf("Compare() = %d, want 1", got)
	}
}

func TestSerializeItems_RoundTrip(t *testing.T) {
	original := HD1080pProfile().Items
	data, err := SerializeItems(original)
	if err != nil {
		t.Fatalf("SerializeItems() error = %v", err)
	}
	items, err := DeserializeItems(data)
	if err != nil {
		t.Fatalf("DeserializeItems() error = %v", err)
	}
	if len(items) != len(original) {
		t.Fatalf("got %d items, want %d", len(items), len(original))
	}
	if _, err := DeserializeItems("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

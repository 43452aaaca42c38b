package record

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"MARLEX Pipes", "marlex pipes"},
		{"Grade 100%", "grade 100%"},
		{"multi\nline", "multi\nline"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeQuery_StripsSpaces(t *testing.T) {
	tests := []struct{ in, want string }{
		{"MR LX", "mrlx"},
		{"  grade 100  ", "grade100"},
		{"\ttabs stay\t", "\ttabsstay\t"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeQuery(tt.in); got != tt.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("content")
	b := Fingerprint("content")
	c := Fingerprint("Content")

	if a != b {
		t.Error("fingerprint must be deterministic")
	}
	if a == c {
		t.Error("fingerprint must be case sensitive")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestQueryableWrappers(t *testing.T) {
	clip := ClipboardRecord{ID: 7, Content: "c", CapturedAt: 100, SourceApp: "term"}
	q := Clipboard(clip)
	if q.Kind != KindClipboard || q.ID != 7 || q.RecencyBasis != 100 || q.SourceApp != "term" {
		t.Errorf("Clipboard wrapper = %+v", q)
	}

	m := MasterRecord{ID: 3, Content: "m", Collection: "pipes", Notes: "n", ImportedAt: 200}
	q = Master(m)
	if q.Kind != KindMaster || q.Collection != "pipes" || q.RecencyBasis != 200 {
		t.Errorf("Master wrapper = %+v", q)
	}
}

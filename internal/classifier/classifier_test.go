package classifier

import "testing"

func TestClassifyTable(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]interface{}
		want    Result
	}{
		{"pdf extension skips", map[string]interface{}{"url": "https://x.test/file.pdf"}, ResultSkip},
		{"twitter heuristic domain", map[string]interface{}{"url": "https://twitter.com/u"}, ResultBrowser},
		{"render_js flag", map[string]interface{}{"url": "https://x.test", "render_js": true}, ResultBrowser},
		{"default html", map[string]interface{}{"url": "https://x.test"}, ResultHTML},
		{"missing url skips", map[string]interface{}{}, ResultSkip},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.payload); got != tc.want {
				t.Errorf("Classify(%+v) = %q, want %q", tc.payload, got, tc.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	payload := map[string]interface{}{"url": "https://x.test", "render_js": true}
	first := Classify(payload)
	second := Classify(payload)
	if first != second {
		t.Fatalf("expected deterministic output, got %q then %q", first, second)
	}
}

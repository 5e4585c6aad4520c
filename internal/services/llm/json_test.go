package llm

import "testing"

func TestDecodeLLMJSON(t *testing.T) {
	type payload struct {
		Characters []struct {
			Name string `json:"name"`
		} `json:"characters"`
	}
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"strict", `{"characters":[{"name":"Ava"}]}`, "Ava"},
		{"prose wrapped", "Here is the cast you asked for:\n{\"characters\":[{\"name\":\"Ben\"}]}\nLet me know!", "Ben"},
		{"code fence", "```json\n{\"characters\":[{\"name\":\"Cy\"}]}\n```", "Cy"},
		{"fence after prose", "Result:\n```\n{\"characters\":[{\"name\":\"Di\"}]}\n```", "Di"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			if err := DecodeLLMJSON(tc.content, &got); err != nil {
				t.Fatalf("DecodeLLMJSON returned error: %v", err)
			}
			if len(got.Characters) != 1 || got.Characters[0].Name != tc.want {
				t.Fatalf("unexpected decode %+v", got)
			}
		})
	}
}

func TestDecodeLLMJSONFailures(t *testing.T) {
	var target map[string]any
	for _, content := range []string{"", "no json here at all", "{broken"} {
		if err := DecodeLLMJSON(content, &target); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestExtractJSONSpanPrefersEarliestOpener(t *testing.T) {
	cases := []struct {
		content string
		want    string
	}{
		{`Top picks: [{"name":"A"},{"name":"B"}] done`, `[{"name":"A"},{"name":"B"}]`},
		{`Answer: {"actors":[{"name":"A"}]} ok`, `{"actors":[{"name":"A"}]}`},
		{`nothing`, ``},
		{`[1, 2`, ``},
	}
	for _, tc := range cases {
		if got := ExtractJSONSpan(tc.content); got != tc.want {
			t.Fatalf("ExtractJSONSpan(%q) = %q, want %q", tc.content, got, tc.want)
		}
	}
}

package security

import "testing"

func TestTextSanitizer_Clean(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Work", "Work"},
		{"trims whitespace", "  Work  ", "Work"},
		{"empty", "", ""},
		{"whitespace only", "   \t\n", ""},
		{"strips tags", "<b>Work</b>", "Work"},
		{"drops script", "<script>alert(1)</script>Plan", "Plan"},
		{"keeps ampersand", "R&D", "R&D"},
		{"keeps comparison", "a < b", "a < b"},
		{"keeps quotes", `say "hi"`, `say "hi"`},
		{"keeps japanese", "買い物リスト", "買い物リスト"},
		{"keeps bare less-than", "x<y", "x<y"},
		{"keeps unclosed tag", "a<b>c", "a<b>c"},
		{"keeps unclosed title", "Fix <title> tag bug", "Fix <title> tag bug"},
		{"keeps unmatched closing tag", "close </div> later", "close </div> later"},
		{"keeps entity-encoded markup", "&lt;script&gt;alert(1)&lt;/script&gt;", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"keeps literal entity", "R&amp;D", "R&amp;D"},
		{"strips void element", "line<br>break", "linebreak"},
		{"strips self-closing tag", "a<img src=x />b", "ab"},
		{"strips balanced tag with unclosed inner", "<b>a <i> b</b>", "a <i> b"},
		{"strips nested tags", "<div><p>Plan</p></div>", "Plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Cleanの結果を再度Cleanしても変わらない
func TestTextSanitizer_Clean_Idempotent(t *testing.T) {
	s := NewTextSanitizer()
	inputs := []string{
		"<i>Ship</i> v1 & more",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"x<y",
		"<<b></b>i>x</i>",
		"<scr<b></b>ipt>alert(1)</script>",
		"a &amp;lt; b",
	}

	for _, in := range inputs {
		first := s.Clean(in)
		if second := s.Clean(first); first != second {
			t.Errorf("Clean(%q) is not idempotent: %q -> %q", in, first, second)
		}
	}
}

// 除去後に現れたタグも除去される
func TestTextSanitizer_Clean_RevealedMarkup(t *testing.T) {
	s := NewTextSanitizer()
	if got := s.Clean("<<b></b>i>x</i>"); got != "x" {
		t.Errorf("Clean = %q, want %q", got, "x")
	}
}

// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はボードやTodoのタイトル・説明文からマークアップを除去する。
type TextSanitizer interface {
	// Clean はHTMLタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	// タグ以外の文字は入力のまま残る（"x<y" や "&lt;b&gt;" はそのまま）。
	Clean(s string) string
}

// tagPattern は開始・終了・自己終了タグの候補にマッチする。
var tagPattern = regexp.MustCompile(`<(/?)([A-Za-z][A-Za-z0-9-]*)(\s[^<>]*)?/?>`)

// voidElements は終了タグを持たない要素。
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// textSanitizer はbluemondayのStrictPolicyを使うTextSanitizerの実装。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean は対応の取れたタグと空要素タグだけを除去する。
// 除去によって新たなタグが現れる場合に備え、結果が変わらなくなるまで繰り返す。
func (s *textSanitizer) Clean(in string) string {
	out := strings.TrimSpace(in)
	for {
		next := strings.TrimSpace(s.stripOnce(out))
		if next == out {
			return out
		}
		out = next
	}
}

// stripOnce はマークアップと判定したタグ以外をエスケープしてからStrictPolicyに通す。
// エスケープ済みの部分は出力をUnescapeすると入力どおりに戻る。
func (s *textSanitizer) stripOnce(in string) string {
	locs := tagPattern.FindAllStringSubmatchIndex(in, -1)
	markup := markupTags(in, locs)
	if markup == nil {
		return in
	}

	var b strings.Builder
	prev := 0
	for i, loc := range locs {
		if !markup[i] {
			continue
		}
		b.WriteString(html.EscapeString(in[prev:loc[0]]))
		b.WriteString(in[loc[0]:loc[1]])
		prev = loc[1]
	}
	b.WriteString(html.EscapeString(in[prev:]))

	return html.UnescapeString(s.policy.Sanitize(b.String()))
}

// markupTags はタグ候補のうち、終了タグと対応する開始・終了タグ、自己終了タグ、空要素タグを選ぶ。
// 該当がなければnilを返す。
func markupTags(in string, locs [][]int) []bool {
	type openTag struct {
		name  string
		index int
	}

	markup := make([]bool, len(locs))
	found := false
	var stack []openTag
	for i, loc := range locs {
		closing := loc[3] > loc[2]
		name := strings.ToLower(in[loc[4]:loc[5]])

		switch {
		case closing:
			for j := len(stack) - 1; j >= 0; j-- {
				if stack[j].name == name {
					markup[stack[j].index], markup[i] = true, true
					stack = stack[:j]
					found = true
					break
				}
			}
		case voidElements[name] || strings.HasSuffix(in[loc[0]:loc[1]], "/>"):
			markup[i] = true
			found = true
		default:
			stack = append(stack, openTag{name: name, index: i})
		}
	}

	if !found {
		return nil
	}
	return markup
}

package extract

import (
	"regexp"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "line one\r\nline two", "line one\nline two"},
		{"newline runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"space runs", "a   b\t\tc", "a b c"},
		{"preserves paragraph boundary", "a\n\nb", "a\n\nb"},
		{"preserves single newline", "a\nb", "a\nb"},
		{"trims", "  \n hello \n  ", "hello"},
		{"mixed", "one  two\r\n\r\n\r\n\r\nthree\t\tfour", "one two\n\nthree four"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeInvariants(t *testing.T) {
	inputs := []string{
		"a\r\nb\r\n\r\n\r\nc    d\n\n\n\n\n\ne",
		"\t\tindented\r\n\r\nnext   paragraph\r\n",
		strings.Repeat("word  word\r\n\r\n\r\n", 50),
	}
	tripleNewline := regexp.MustCompile(`\n{3,}`)
	spaceRun := regexp.MustCompile(`[^\S\n]{2,}`)

	for _, in := range inputs {
		out := Normalize(in)
		if strings.Contains(out, "\r") {
			t.Errorf("normalized output contains carriage return: %q", out)
		}
		if tripleNewline.MatchString(out) {
			t.Errorf("normalized output contains 3+ newline run: %q", out)
		}
		if spaceRun.MatchString(out) {
			t.Errorf("normalized output contains whitespace run: %q", out)
		}
		if out != strings.TrimSpace(out) {
			t.Errorf("normalized output not trimmed: %q", out)
		}
	}
}

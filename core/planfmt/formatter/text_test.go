package formatter_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opal-lang/planwords/core/planfmt/formatter"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		words    []string
		expected string
	}{
		{
			name:     "empty plan",
			words:    nil,
			expected: "",
		},
		{
			name:     "flat words stay on one line",
			words:    []string{"write", `"a"`, "writeln", `"b"`},
			expected: "write \"a\" writeln \"b\"\n",
		},
		{
			name:     "block",
			words:    []string{"times", "3", "{", "writeln", `"x"`, "}"},
			expected: "times 3 {\n  writeln \"x\"\n}\n",
		},
		{
			name:  "nested if-else",
			words: []string{"if-else", "true", "{", "times", "2", "{", "write", `"a"`, "}", "}", "{", "pass", "}", "writeln", `""`},
			expected: "if-else true {\n" +
				"  times 2 {\n" +
				"    write \"a\"\n" +
				"  }\n" +
				"}\n" +
				"{\n" +
				"  pass\n" +
				"}\n" +
				"writeln \"\"\n",
		},
		{
			name:     "stray closing brace does not underflow",
			words:    []string{"}", "pass"},
			expected: "}\npass\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, formatter.Format(tt.words)); diff != "" {
				t.Errorf("Format mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatList(t *testing.T) {
	var buf bytes.Buffer
	words := []string{"if", "true", "{", "writeln", `"A"`, "}", "x", "y", "z", "w", "v"}
	formatter.FormatList(&buf, words, false)

	want := " 0  if\n 1  true\n 2  {\n 3  writeln\n 4  \"A\"\n 5  }\n 6  x\n 7  y\n 8  z\n 9  w\n10  v\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("FormatList mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatTreeColors(t *testing.T) {
	var buf bytes.Buffer
	formatter.FormatTree(&buf, []string{"len", `"abc"`, "42"}, true)

	want := formatter.ColorBlue + "len" + formatter.ColorReset + " " +
		formatter.ColorGreen + `"abc"` + formatter.ColorReset + " " +
		formatter.ColorCyan + "42" + formatter.ColorReset + "\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("colored output mismatch (-want +got):\n%s", diff)
	}
}

package astwalk

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/vsharp/parser"
)

func TestToplevelImports(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"no imports", "set x = 1", nil},
		{"literal paths", "import \"a.vs\"\nimport \"lib/b\" as b\nset x = 1", []string{"a.vs", "lib/b"}},
		{"computed path is skipped", "set p = \"a.vs\"\nimport p\nimport \"c.vs\"", []string{"c.vs"}},
		{"nested imports are skipped", "func f() { import \"x.vs\" }\nif (true) { import \"y.vs\" }", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.ParseString(tt.source)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			var got []string
			for _, path := range ToplevelImports(prog) {
				got = append(got, path)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ToplevelImports() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToplevelFuncs(t *testing.T) {
	prog, err := parser.ParseString("func a() {}\nset o = [x = 1]\nfunc o.m() {}\nfunc b(x) { x }\nfunc c() {}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var got []string
	for name := range ToplevelFuncs(prog) {
		got = append(got, name)
		if name == "b" {
			break
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("ToplevelFuncs() mismatch (-want +got):\n%s", diff)
	}
	for range ToplevelFuncs(nil) {
		t.Errorf("nil program yielded a function")
	}
}

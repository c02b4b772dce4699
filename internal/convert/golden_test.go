package convert_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/tools/txtar"

	"github.com/unbound-force/pest2phpunit/internal/convert"
	"github.com/unbound-force/pest2phpunit/internal/phpast"
)

// TestGolden converts the input.php section of every testdata archive
// and compares it with output.php, ignoring whitespace. The markers
// section lists "method: message" lines.
func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no golden files")
	}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".txtar")
		t.Run(name, func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			sections := make(map[string]string)
			for _, f := range ar.Files {
				sections[f.Name] = string(f.Data)
			}

			res, err := convert.File(name+".php", []byte(sections["input.php"]), convert.DefaultOptions())
			if err != nil {
				t.Fatalf("File: %v", err)
			}
			if diff := cmp.Diff(phpast.Compact(sections["output.php"]), phpast.Compact(res.Output)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s\nfull output:\n%s", diff, res.Output)
			}

			var got []string
			for _, m := range res.Markers {
				got = append(got, m.Method+": "+m.Message)
			}
			var want []string
			if s := strings.TrimSpace(sections["markers"]); s != "" {
				want = strings.Split(s, "\n")
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("markers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

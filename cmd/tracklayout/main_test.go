package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GruiaChiscop/top-speed/pkg/trackfile"
)

const oval = `[meta]
name=Oval

[edges]
ring a a

[edge ring.geometry]
arc 628.3185 100 right

[edge ring.checkpoints]
0 5 start
`

func trackDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := trackDir(t, map[string]string{"oval.trk": oval, "bad.trk": "[edges]\ne a b\n"})

	out, err := run(t, "validate", "--root", dir, "oval")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Result: VALID (0 errors, 0 warnings, 0 info)") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, "validate", "--root", dir, "bad")
	if !errors.Is(err, errInvalid) {
		t.Fatalf("err = %v, want errInvalid", err)
	}
	if !strings.Contains(out, `line 2: edge "e" has no geometry`) {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := run(t, "validate", "--root", dir, "nowhere"); err == nil || errors.Is(err, errInvalid) {
		t.Errorf("missing track err = %v", err)
	}
}

func TestBuildCommand(t *testing.T) {
	dir := trackDir(t, map[string]string{"oval.trk": oval})

	out, err := run(t, "build", "-r", dir, "oval")
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Components int `json:"components"`
		Placed     []struct {
			ID     string  `json:"id"`
			Length float64 `json:"length"`
		} `json:"placed"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decoding build output: %v", err)
	}
	if doc.Components != 1 || len(doc.Placed) != 1 || doc.Placed[0].ID != "ring" {
		t.Errorf("doc = %+v", doc)
	}

	out, err = run(t, "build", "-r", dir, "--format", "yaml", "oval")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"components: 1", "name: Oval", "id: ring"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q", want)
		}
	}

	if _, err := run(t, "build", "-r", dir, "--format", "xml", "oval"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestFmtCommand(t *testing.T) {
	dir := trackDir(t, map[string]string{"oval.trk": oval})

	out, err := run(t, "fmt", "-r", dir, "oval")
	if err != nil {
		t.Fatal(err)
	}
	l, err := trackfile.ParseBytes([]byte(out))
	if err != nil {
		t.Fatalf("formatted output does not parse: %v\n%s", err, out)
	}
	if l.Meta.Name != "Oval" {
		t.Errorf("name = %q", l.Meta.Name)
	}

	if _, err := run(t, "fmt", "-r", dir, "-w", "oval"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "oval.trk"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != out {
		t.Errorf("written file differs from printed output:\n%s", data)
	}
}

func TestPoseCommand(t *testing.T) {
	dir := trackDir(t, map[string]string{"oval.trk": oval})
	out, err := run(t, "pose", "-r", dir, "--distance", "100", "oval")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "edge ring at 100.000m of ") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestDumpCommand(t *testing.T) {
	dir := trackDir(t, map[string]string{"oval.trk": oval})
	out, err := run(t, "dump", "-r", dir, "oval")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `Name: (string) (len=4) "Oval"`) {
		t.Errorf("unexpected dump:\n%s", out)
	}
}

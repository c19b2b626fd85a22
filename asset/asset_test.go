package asset

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"/sounds/a.mp3":      "sounds/a.mp3",
		"images/../x.png":    "x.png",
		"../../etc/passwd":   "etc/passwd",
		`images\resting.png`: "images/resting.png",
		"":                   ".",
	}
	for in, want := range cases {
		if got := CleanPath(in); got != want {
			t.Errorf("CleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFramePath(t *testing.T) {
	if got := FramePath("images/resting", 3, "png"); got != "images/resting_03.png" {
		t.Errorf("FramePath = %q", got)
	}
}

func TestParseManifestDefaults(t *testing.T) {
	m, err := ParseManifest(strings.NewReader("frames: {resting: r, reacting: x}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if m.PoolSize != 6 {
		t.Errorf("PoolSize = %d", m.PoolSize)
	}
	if len(m.Formats) != 2 || m.Formats[0] != "mp3" || m.Formats[1] != "wav" {
		t.Errorf("Formats = %v", m.Formats)
	}
}

func TestParseManifestRejects(t *testing.T) {
	bad := []string{
		"frames: {resting: r}\n",
		"frames: {resting: r, reacting: x}\nunknown: 1\n",
		"frames: {resting: r, reacting: x}\nsounds: {soft_01: ''}\n",
	}
	for _, doc := range bad {
		if _, err := ParseManifest(strings.NewReader(doc)); err == nil {
			t.Errorf("accepted %q", doc)
		}
	}
}

func TestLoadManifestFallsBack(t *testing.T) {
	src := NewFSSource(fstest.MapFS{})
	m, found, err := LoadManifest(context.Background(), src, DefaultManifestName)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("found reported for missing manifest")
	}
	if len(m.Sounds) != 6 || m.Frames.Resting != "images/resting" {
		t.Errorf("default manifest not applied: %+v", m)
	}
}

func TestLoadFramesIsolatesFailures(t *testing.T) {
	fsys := fstest.MapFS{
		"r_01.png": {Data: []byte("one")},
		"r_02.txt": {Data: []byte("two")},
		"r_03.png": {Data: []byte("bad")},
		"r_05.png": {Data: []byte("five")},
	}
	decode := func(_, ext string, data []byte) (string, error) {
		if string(data) == "bad" {
			return "", errors.New("corrupt")
		}
		return ext + ":" + string(data), nil
	}

	frames, errs := LoadFrames(context.Background(), NewFSSource(fsys), "r", 6, decode)

	want := []string{"png:one", "txt:two", "png:five"}
	if strings.Join(frames, ",") != strings.Join(want, ",") {
		t.Errorf("frames = %v, want %v", frames, want)
	}
	if len(errs) != 3 {
		t.Fatalf("errors = %v", errs)
	}
	if errs[0].Index != 3 || errs[1].Index != 4 || errs[2].Index != 6 {
		t.Errorf("error indices = %d,%d,%d", errs[0].Index, errs[1].Index, errs[2].Index)
	}
	if errs[1].Path != "r_04.txt" {
		t.Errorf("missing frame path = %q", errs[1].Path)
	}
}

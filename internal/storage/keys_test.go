package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBasenameKey(t *testing.T) {
	a, _ := BasenameKey("/music/rock/song.wav")
	b, _ := BasenameKey("/music/jazz/song.wav")
	if a != "song.wav" || a != b {
		t.Errorf("Expected both paths to key as song.wav, got %q and %q", a, b)
	}
	if _, err := BasenameKey("/"); err == nil {
		t.Error("Expected error for path without a file name")
	}
}

func TestPathKeyDistinguishesDirectories(t *testing.T) {
	a, err := PathKey("rock/../rock/song.wav")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := PathKey("jazz/song.wav")
	if a == b {
		t.Errorf("Expected distinct keys, both were %q", a)
	}
	if !filepath.IsAbs(a) || strings.Contains(a, "..") {
		t.Errorf("Expected clean absolute path, got %q", a)
	}
}

func TestContentKey(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string, data string) string {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	same1, _ := ContentKey(write("x/song.wav", "RIFF-same-bytes"))
	same2, _ := ContentKey(write("y/song.wav", "RIFF-same-bytes"))
	other, _ := ContentKey(write("z/song.wav", "RIFF-other-bytes"))

	if same1 != same2 {
		t.Errorf("Expected equal bytes to give equal keys, got %q and %q", same1, same2)
	}
	if same1 == other {
		t.Errorf("Expected different bytes to give different keys, both %q", same1)
	}
	if !strings.HasSuffix(same1, "-song.wav") || len(same1) != 16+len("-song.wav") {
		t.Errorf("Unexpected key format %q", same1)
	}

	if _, err := ContentKey(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseKeyMode(t *testing.T) {
	tests := []struct {
		in      string
		want    KeyMode
		wantErr bool
	}{
		{"", KeyBasename, false},
		{"Path", KeyPath, false},
		{"content", KeyContent, false},
		{"uuid", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKeyMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKeyMode(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseKeyMode(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

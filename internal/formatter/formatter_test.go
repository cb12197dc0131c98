package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/wavecap/internal/library"
)

func sampleExport() *ChannelExport {
	return &ChannelExport{
		Channel: "hardstyle",
		Tracks: []library.Track{
			{Artist: "Headhunterz", Title: "Dragonborn", Rating: 5, Path: "hardstyle/Headhunterz - Dragonborn.mp3"},
			{Artist: "Wildstylez", Title: "Year of Summer", Rating: 0, Path: "hardstyle/Wildstylez - Year of Summer.mp3"},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	t.Run("renders header and rows", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[0] != "Artist,Title,Rating,Path" {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if !strings.Contains(lines[1], "Headhunterz,Dragonborn,5") {
			t.Errorf("unexpected row: %s", lines[1])
		}
	})

	t.Run("empty channel renders only the header", func(t *testing.T) {
		data, err := ExportToCSV(&ChannelExport{Channel: "ambient"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(string(data)) != "Artist,Title,Rating,Path" {
			t.Errorf("expected lone header, got %q", string(data))
		}
	})
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleExport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := string(data)
	if !strings.Contains(result, "# hardstyle") {
		t.Error("expected channel heading")
	}
	if !strings.Contains(result, "**Tracks**: 2") {
		t.Error("expected track count")
	}
	if !strings.Contains(result, "1. Headhunterz - Dragonborn ★★★★★") {
		t.Errorf("expected rated track with stars, got %s", result)
	}
	if strings.Contains(result, "Year of Summer ★") {
		t.Error("unrated track should not render stars")
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleExport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := string(data)
	if !strings.Contains(result, "Channel: hardstyle") {
		t.Error("expected channel line")
	}
	if !strings.Contains(result, "2. Wildstylez - Year of Summer") {
		t.Error("expected numbered track line")
	}
}

func TestRender(t *testing.T) {
	export := sampleExport()

	t.Run("json round trips", func(t *testing.T) {
		data, err := Render(export, "json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded ChannelExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if decoded.Channel != "hardstyle" || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected decode: %+v", decoded)
		}
	})

	t.Run("md aliases markdown", func(t *testing.T) {
		data, err := Render(export, "md")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(string(data), "# hardstyle") {
			t.Error("expected markdown output")
		}
	})

	t.Run("unsupported format fails", func(t *testing.T) {
		if _, err := Render(export, "xml"); err == nil {
			t.Fatal("expected error for unsupported format")
		}
	})
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"json":     "json",
		"csv":      "csv",
		"markdown": "md",
		"md":       "md",
		"txt":      "txt",
		"text":     "txt",
	}
	for format, want := range cases {
		if got := Extension(format); got != want {
			t.Errorf("Extension(%q) = %q, want %q", format, got, want)
		}
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("writes rendered output to disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hardstyle.csv")
		if err := WriteExport(sampleExport(), "csv", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.Contains(string(data), "Dragonborn") {
			t.Error("expected track in exported file")
		}
	})

	t.Run("propagates render errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xml")
		if err := WriteExport(sampleExport(), "xml", path); err == nil {
			t.Fatal("expected error for unsupported format")
		}
		if _, err := os.Stat(path); err == nil {
			t.Error("expected no file to be written")
		}
	})
}

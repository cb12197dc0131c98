// package formatter renders channel track listings to export formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/wavecap/internal/library"
)

// ChannelExport is one channel's track listing prepared for export.
type ChannelExport struct {
	Channel string          `json:"channel"`
	Tracks  []library.Track `json:"tracks"`
}

// ExportToCSV converts a ChannelExport to CSV format with columns: Artist, Title, Rating, Path
func ExportToCSV(export *ChannelExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Artist", "Title", "Rating", "Path"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.Artist,
			track.Title,
			strconv.Itoa(track.Rating),
			track.Path,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ChannelExport to Markdown format.
//
// Rated tracks render their rating as stars after the title.
func ExportToMarkdown(export *ChannelExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Channel))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		starPart := ""
		if track.Rating > 0 {
			starPart = " " + stars(track.Rating)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.Artist, track.Title, starPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ChannelExport to plain text format
func ExportToText(export *ChannelExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Channel: %s\n", export.Channel))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a ChannelExport to indented JSON
func ExportToJSON(export *ChannelExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// Render converts a ChannelExport to the named format.
//
// Supported formats are csv, markdown (md), txt, and json.
func Render(export *ChannelExport, format string) ([]byte, error) {
	switch format {
	case "csv":
		return ExportToCSV(export)
	case "markdown", "md":
		return ExportToMarkdown(export)
	case "txt", "text":
		return ExportToText(export)
	case "json":
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Extension returns the file extension for the named format, without a dot.
func Extension(format string) string {
	switch format {
	case "markdown", "md":
		return "md"
	case "txt", "text":
		return "txt"
	default:
		return format
	}
}

// WriteExport renders a ChannelExport and writes it to path.
func WriteExport(export *ChannelExport, format, path string) error {
	data, err := Render(export, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func stars(rating int) string {
	out := ""
	for i := 0; i < rating; i++ {
		out += "★"
	}
	return out
}

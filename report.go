package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"entropack/pkg/baseline"
	"entropack/pkg/core"
	"entropack/pkg/progress"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFCF40"))
	labelStyle = lipgloss.NewStyle().
			Faint(true).
			Width(18)
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00FF00"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true).
			Padding(0, 1)
)

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func bits(n int64) string {
	return fmt.Sprintf("%d bits (%s)", n, progress.FormatSize(n/8))
}

func percent(r float64) string {
	return fmt.Sprintf("%.2f%%", r*100)
}

func printCompression(w io.Writer, res core.CompressionResult) {
	lines := []string{
		titleStyle.Render("Compressed " + res.ArchivePath),
		row("Original size", bits(res.OriginalSizeBits)),
		row("Compressed size", bits(res.CompressedSizeBits)),
		row("Ratio", percent(res.Ratio())),
		row("Encrypted", yesNo(res.IsEncrypted)),
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func printExtracted(w io.Writer, archivePath string, written []string) {
	fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("Extracted %d file(s) from %s", len(written), archivePath)))
	for _, p := range written {
		fmt.Fprintln(w, "  "+p)
	}
}

func printFolder(w io.Writer, res *core.FolderResult) {
	lines := []string{
		titleStyle.Render("Archived " + res.Folder),
		row("Archive folder", res.ArchiveDir),
		row("Algorithm", res.Algorithm.String()),
		row("Files", fmt.Sprintf("%d", len(res.Files))),
		row("Original size", bits(res.TotalOriginalBits)),
		row("Compressed size", bits(res.TotalCompressedBits)),
		row("Ratio", percent(res.Ratio())),
		row("Encrypted", yesNo(res.Encrypted)),
	}
	for _, f := range res.Failed {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("skipped %s: %v", f.Path, f.Err)))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func printFolderExtract(w io.Writer, res *core.ExtractResult) {
	lines := []string{
		titleStyle.Render("Extracted " + res.ArchiveDir),
		row("Output folder", res.OutputDir),
		row("Files", fmt.Sprintf("%d", len(res.Extracted))),
		row("Encrypted", yesNo(res.Encrypted)),
	}
	for _, f := range res.Failed {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("skipped %s: %v", f.Path, f.Err)))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func printComparison(w io.Writer, path string, original int64, ms []baseline.Measurement) {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s (%s)", path, progress.FormatSize(original))),
	}
	for _, m := range ms {
		lines = append(lines, row(m.Name, fmt.Sprintf("%10s  %7s  %v",
			progress.FormatSize(m.Size), percent(m.Ratio(original)), m.Elapsed.Round(time.Microsecond))))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

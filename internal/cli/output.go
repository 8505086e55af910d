package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
	}
}

// initColor disables color when asked to or when stdout is not a terminal
func initColor(noColor bool) {
	if noColor || !isTTY() {
		color.NoColor = true
	}
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// printer renders command results in the selected format
type printer struct {
	out    io.Writer
	format string
}

func newPrinter(out io.Writer, format string) *printer {
	return &printer{out: out, format: format}
}

// print writes v as JSON or YAML, or calls table with a tabwriter
func (p *printer) print(v any, table func(w io.Writer)) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func (p *printer) structured() bool {
	return p.format != formatTable
}

// ok prints a green success line
func (p *printer) ok(format string, a ...any) {
	fmt.Fprintln(p.out, color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow notice
func (p *printer) warn(format string, a ...any) {
	fmt.Fprintln(p.out, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// header prints a cyan heading
func (p *printer) header(format string, a ...any) {
	fmt.Fprintln(p.out, color.CyanString(fmt.Sprintf(format, a...)))
}

// albumRow is the printed form of an album
type albumRow struct {
	Rank     int      `json:"rank" yaml:"rank"`
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Artist   string   `json:"artist" yaml:"artist"`
	Released string   `json:"released,omitempty" yaml:"released,omitempty"`
	Genres   []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	Advisory string   `json:"content_advisory_rating,omitempty" yaml:"content_advisory_rating,omitempty"`
	Artwork  string   `json:"artwork_url,omitempty" yaml:"artwork_url,omitempty"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`
}

func newAlbumRow(a domain.Album) albumRow {
	return albumRow{
		Rank:     a.Rank,
		ID:       a.ID,
		Name:     a.Name,
		Artist:   a.ArtistName,
		Released: a.ReleaseDate,
		Genres:   a.GenreNames(),
		Advisory: a.ContentAdvisoryRating,
		Artwork:  a.ArtworkURL,
		URL:      a.URL,
	}
}

func newAlbumRows(albums []domain.Album) []albumRow {
	rows := make([]albumRow, 0, len(albums))
	for _, a := range albums {
		rows = append(rows, newAlbumRow(a))
	}
	return rows
}

// writeAlbumTable prints one line per album
func writeAlbumTable(w io.Writer, albums []domain.Album) {
	fmt.Fprintln(w, "RANK\tNAME\tARTIST\tRELEASED\tGENRE")
	for _, a := range albums {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			a.Rank, truncate(a.Name, 40), truncate(a.ArtistName, 30), orDash(a.ReleaseDate), orDash(a.PrimaryGenre()))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC1123)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

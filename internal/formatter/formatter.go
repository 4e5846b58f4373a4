// package formatter renders the ranked album views as static HTML pages and
// formats terminal output for the rank sample and the tidy plan
package formatter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattdurrant/favourite-albums/internal/models"
	"github.com/mattdurrant/favourite-albums/internal/ranking"
	"github.com/mattdurrant/favourite-albums/internal/tidy"
)

//go:embed templates/*.html
var templateFS embed.FS

// AlbumView is the template-facing projection of one ranked album.
type AlbumView struct {
	Rank        int
	Name        string
	ArtistLine  string
	URL         string
	ImageURL    string
	Year        int
	Percent     string
	Counted     int
	Denominator int
	FiveStars   int
	Tracks      []TrackView
}

// TrackView is one tracklist row with its star glyph.
type TrackView struct {
	Name  string
	Glyph string
}

// TopPageData feeds the global top-K template.
type TopPageData struct {
	GeneratedAt string
	Albums      []AlbumView
}

// YearSection is one year's list on the by-year page.
type YearSection struct {
	Year   int
	Albums []AlbumView
}

// YearsPageData feeds the by-year template.
type YearsPageData struct {
	GeneratedAt string
	Sections    []YearSection
}

// Renderer holds the parsed page templates.
type Renderer struct {
	templates *template.Template
	now       func() time.Time
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: templates, now: time.Now}, nil
}

// buildViews projects ranked albums into template data, attaching enriched
// tracklists and best-star glyphs where available.
func buildViews(albums []ranking.RankedAlbum, tracklists map[string][]models.Track, bestStars map[string]int) []AlbumView {
	views := make([]AlbumView, 0, len(albums))

	for i, album := range albums {
		view := AlbumView{
			Rank:        i + 1,
			Name:        album.Album.Name,
			ArtistLine:  album.Album.ArtistLine(),
			URL:         album.Album.URL,
			ImageURL:    album.Album.ImageURL,
			Year:        album.Album.ReleaseYear,
			Percent:     fmt.Sprintf("%.1f", album.Percent),
			Counted:     album.Counted,
			Denominator: album.Denominator,
			FiveStars:   album.Histogram[5],
		}

		for _, track := range tracklists[album.Album.ID] {
			view.Tracks = append(view.Tracks, TrackView{
				Name:  track.Name,
				Glyph: StarGlyph(bestStars[track.ID]),
			})
		}

		views = append(views, view)
	}

	return views
}

// StarGlyph renders a best-star value as filled stars, empty for unrated tracks.
func StarGlyph(star int) string {
	if star < 1 || star > 5 {
		return ""
	}
	return strings.Repeat("★", star)
}

// WriteTopPage renders the global top-K page to dir/index.html.
func (r *Renderer) WriteTopPage(dir string, albums []ranking.RankedAlbum, tracklists map[string][]models.Track, bestStars map[string]int) error {
	data := TopPageData{
		GeneratedAt: r.now().Format("2 January 2006"),
		Albums:      buildViews(albums, tracklists, bestStars),
	}
	return r.writePage(filepath.Join(dir, "index.html"), "top.html", data)
}

// WriteYearsPage renders the by-year page to dir/years.html, newest year first.
func (r *Renderer) WriteYearsPage(dir string, years []int, byYear map[int][]ranking.RankedAlbum, tracklists map[string][]models.Track, bestStars map[string]int) error {
	data := YearsPageData{GeneratedAt: r.now().Format("2 January 2006")}
	for _, year := range years {
		data.Sections = append(data.Sections, YearSection{
			Year:   year,
			Albums: buildViews(byYear[year], tracklists, bestStars),
		})
	}
	return r.writePage(filepath.Join(dir, "years.html"), "years.html", data)
}

// writePage renders into memory first so a template failure never leaves a
// half-written page behind.
func (r *Renderer) writePage(path, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954")).MarginBottom(1)
	removeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56"))
	addStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// FormatRankSample renders the first n ranked albums for the terminal.
func FormatRankSample(albums []ranking.RankedAlbum, n int) string {
	if n <= 0 || n > len(albums) {
		n = len(albums)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Favourite albums"))
	b.WriteString("\n")

	for i := 0; i < n; i++ {
		album := albums[i]
		b.WriteString(fmt.Sprintf("%3d. %s - %s %s\n",
			i+1,
			album.Album.Name,
			album.Album.ArtistLine(),
			dimStyle.Render(fmt.Sprintf("(%.1f%%, %d/%d tracks)", album.Percent, album.Counted, album.Denominator)),
		))
	}

	return b.String()
}

// FormatPlan renders a tidy plan for the terminal, highest tier first.
func FormatPlan(plan *tidy.Plan, playlists map[int]string) string {
	var b strings.Builder

	if plan.IsEmpty() {
		b.WriteString(addStyle.Render("✓ Playlists are already tidy"))
		b.WriteString("\n")
		return b.String()
	}

	removes, adds := plan.Totals()
	b.WriteString(titleStyle.Render(fmt.Sprintf("Tidy plan: %d removals, %d additions", removes, adds)))
	b.WriteString("\n")

	for _, star := range plan.Stars() {
		edit := plan.Tiers[star]
		b.WriteString(fmt.Sprintf("%d★ %s\n", star, dimStyle.Render("("+playlists[star]+")")))
		for _, id := range edit.Remove {
			b.WriteString("  " + removeStyle.Render("- "+id) + "\n")
		}
		for _, id := range edit.Add {
			b.WriteString("  " + addStyle.Render("+ "+id) + "\n")
		}
	}

	return b.String()
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/anidex/internal/browse"
	"github.com/mmcdole/anidex/internal/domain"
	"github.com/sahilm/fuzzy"
)

// Color palette
var (
	Accent    = lipgloss.Color("#2E51A2")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Gold      = lipgloss.Color("#E5A00D")
	Red       = lipgloss.Color("#EF4444")
	Yellow    = lipgloss.Color("#F59E0B")
)

// SpinnerFrames animate the wait line while a sync is in flight
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                        \r"

const defaultWidth = 80

// renderer writes catalog output. Styles are only applied when writing to a
// terminal.
type renderer struct {
	w          io.Writer
	width      int
	showImages bool

	title     lipgloss.Style
	subtitle  lipgloss.Style
	dim       lipgloss.Style
	score     lipgloss.Style
	rank      lipgloss.Style
	match     lipgloss.Style
	errStyle  lipgloss.Style
	warnStyle lipgloss.Style
	header    lipgloss.Style
}

func newRenderer(w io.Writer, styled bool, width int, showImages bool) *renderer {
	if width <= 0 {
		width = defaultWidth
	}
	r := &renderer{w: w, width: width, showImages: showImages}
	if !styled {
		plain := lipgloss.NewStyle()
		r.title, r.subtitle, r.dim, r.score, r.rank = plain, plain, plain, plain, plain
		r.match, r.errStyle, r.warnStyle, r.header = plain, plain, plain, plain
		return r
	}

	r.title = lipgloss.NewStyle().Foreground(White).Bold(true)
	r.subtitle = lipgloss.NewStyle().Foreground(LightGray)
	r.dim = lipgloss.NewStyle().Foreground(DimGray)
	r.score = lipgloss.NewStyle().Foreground(Gold)
	r.rank = lipgloss.NewStyle().Foreground(LightGray).Width(6).Align(lipgloss.Right)
	r.match = lipgloss.NewStyle().Foreground(Gold).Bold(true)
	r.errStyle = lipgloss.NewStyle().Foreground(Red)
	r.warnStyle = lipgloss.NewStyle().Foreground(Yellow)
	r.header = lipgloss.NewStyle().
		Foreground(White).
		Background(Accent).
		Bold(true).
		Padding(0, 1)
	return r
}

// List renders a reduced list state. It returns false for ListError so the
// caller can exit non-zero.
func (r *renderer) List(heading string, state browse.ListState, query string) bool {
	switch s := state.(type) {
	case browse.ListReady:
		if heading != "" {
			fmt.Fprintln(r.w, r.header.Render(heading))
		}
		if len(s.Items) == 0 {
			fmt.Fprintln(r.w, r.dim.Render(domain.MsgNoAnimeFound))
		}
		for _, a := range s.Items {
			r.listItem(a, query)
		}
		if s.Notice != "" {
			r.Notice(s.Notice + " (showing cached data)")
		}
		return true
	case browse.ListError:
		r.Error(s.Message)
		return false
	default:
		fmt.Fprintln(r.w, r.dim.Render("Loading..."))
		return true
	}
}

func (r *renderer) listItem(a domain.Anime, query string) {
	rank := "-"
	if a.Rank != nil {
		rank = "#" + strconv.Itoa(*a.Rank)
	}

	meta := []string{a.FormattedEpisodes()}
	if a.Type != "" {
		meta = append(meta, a.Type)
	}
	if a.Year != nil {
		meta = append(meta, strconv.Itoa(*a.Year))
	}
	suffix := "  " + r.score.Render(a.FormattedScore()) + "  " + r.dim.Render(strings.Join(meta, " · "))

	// Leave room for rank, score and metadata
	titleWidth := r.width - 8 - lipgloss.Width(suffix)
	title := truncate(a.Title, titleWidth)

	fmt.Fprintf(r.w, "%s  %s%s  %s\n",
		r.rank.Render(fmt.Sprintf("%6s", rank)),
		r.highlight(title, query),
		suffix,
		r.dim.Render(fmt.Sprintf("[%d]", a.ID)),
	)
	if a.TitleAlt != "" && a.TitleAlt != a.Title {
		fmt.Fprintf(r.w, "        %s\n", r.subtitle.Render(truncate(a.TitleAlt, r.width-8)))
	}
	if r.showImages && a.ImageURL != "" {
		fmt.Fprintf(r.w, "        %s\n", r.dim.Render(a.ImageURL))
	}
}

// Detail renders a reduced detail state. It returns false for DetailError.
func (r *renderer) Detail(state browse.DetailState) bool {
	switch s := state.(type) {
	case browse.DetailReady:
		r.anime(s.Anime)
		if s.Notice != "" {
			r.Notice(s.Notice + " (showing cached data)")
		}
		return true
	case browse.DetailError:
		r.Error(s.Message)
		return false
	default:
		fmt.Fprintln(r.w, r.dim.Render("Loading..."))
		return true
	}
}

func (r *renderer) anime(a domain.Anime) {
	fmt.Fprintln(r.w, r.header.Render(a.DisplayTitle()))
	if a.TitleAlt != "" && a.TitleAlt != a.Title {
		fmt.Fprintln(r.w, r.subtitle.Render(a.TitleAlt))
	}
	if a.TitleJapanese != "" {
		fmt.Fprintln(r.w, r.subtitle.Render(a.TitleJapanese))
	}
	fmt.Fprintln(r.w)

	stats := []string{r.score.Render(a.FormattedScore())}
	if a.ScoredBy != nil {
		stats = append(stats, r.dim.Render(fmt.Sprintf("(%d users)", *a.ScoredBy)))
	}
	if a.Rank != nil {
		stats = append(stats, fmt.Sprintf("Rank #%d", *a.Rank))
	}
	if a.Popularity != nil {
		stats = append(stats, fmt.Sprintf("Popularity #%d", *a.Popularity))
	}
	fmt.Fprintln(r.w, strings.Join(stats, "  "))

	r.field("Type", a.Type)
	r.field("Episodes", a.FormattedEpisodes())
	r.field("Status", a.Status)
	r.field("Aired", seasonLabel(a))
	r.field("Duration", a.Duration)
	r.field("Rating", a.Rating)
	r.field("Source", a.Source)
	r.field("Genres", strings.Join(a.Genres, ", "))
	r.field("Studios", strings.Join(a.Studios, ", "))

	if a.Synopsis != "" {
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, lipgloss.NewStyle().Width(r.width).Render(a.Synopsis))
	}

	if a.TrailerURL != "" {
		fmt.Fprintln(r.w)
		r.field("Trailer", a.TrailerURL)
	}
	if r.showImages {
		r.field("Image", firstNonEmpty(a.LargeImageURL, a.ImageURL))
		r.field("Trailer image", a.TrailerImageURL)
	}
	if !a.FetchedAt.IsZero() {
		fmt.Fprintln(r.w, r.dim.Render("Updated "+a.FetchedAt.Local().Format("2006-01-02 15:04")))
	}
}

func (r *renderer) field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(r.w, "%s %s\n", r.dim.Render(fmt.Sprintf("%-14s", label+":")), value)
}

// Suggestions prints fuzzy title suggestions for a search with no hits.
func (r *renderer) Suggestions(query string, titles []string) {
	if len(titles) == 0 {
		return
	}
	fmt.Fprintln(r.w, r.dim.Render("Did you mean:"))
	for _, t := range titles {
		fmt.Fprintf(r.w, "  %s\n", r.highlight(t, query))
	}
}

func (r *renderer) Notice(msg string) {
	fmt.Fprintln(r.w, r.warnStyle.Render("! "+msg))
}

func (r *renderer) Error(msg string) {
	fmt.Fprintln(r.w, r.errStyle.Render("✗ "+msg))
	fmt.Fprintln(r.w, r.dim.Render("Run again with -refresh to retry."))
}

func (r *renderer) Info(msg string) {
	fmt.Fprintln(r.w, r.dim.Render(msg))
}

// highlight renders the characters of text that fuzzily match query in the
// match style.
func (r *renderer) highlight(text, query string) string {
	if query == "" {
		return r.title.Render(text)
	}
	matches := fuzzy.Find(strings.ToLower(query), []string{strings.ToLower(text)})
	if len(matches) == 0 {
		return r.title.Render(text)
	}

	matched := make(map[int]bool, len(matches[0].MatchedIndexes))
	for _, idx := range matches[0].MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder
	for i, ch := range text {
		if matched[i] {
			b.WriteString(r.match.Render(string(ch)))
		} else {
			b.WriteString(r.title.Render(string(ch)))
		}
	}
	return b.String()
}

func seasonLabel(a domain.Anime) string {
	var parts []string
	if a.Season != "" {
		parts = append(parts, capitalize(a.Season))
	}
	if a.Year != nil {
		parts = append(parts, strconv.Itoa(*a.Year))
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// truncate shortens s to max display cells, marking the cut with an ellipsis
func truncate(s string, max int) string {
	if max <= 1 || lipgloss.Width(s) <= max {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package shuffle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ReportConfig controls terminal reporting.
type ReportConfig struct {
	// Color forces colored output.
	Color bool
	// Verbose prints the source context of parse errors.
	Verbose bool
}

// Summary is the aggregate outcome of one run.
type Summary struct {
	Files            int  `json:"files"`
	Changed          int  `json:"changed"`
	Classes          int  `json:"classes"`
	IDs              int  `json:"ids"`
	CustomProperties int  `json:"custom_properties"`
	OriginalBytes    int  `json:"original_bytes"`
	NewBytes         int  `json:"new_bytes"`
	Problems         int  `json:"problems"`
	DryRun           bool `json:"dry_run"`
}

// Summarize aggregates file stats and registry counts.
func Summarize(stats []FileStat, reg *Registry, problems int) Summary {
	s := Summary{Files: len(stats), Problems: problems}
	for _, st := range stats {
		s.OriginalBytes += st.OriginalSize
		s.NewBytes += st.NewSize
		if st.Rewritten {
			s.Changed++
		}
	}
	if reg != nil {
		s.Classes = reg.Count(Class)
		s.IDs = reg.Count(ID)
		s.CustomProperties = reg.Count(CustomProperty)
	}
	return s
}

// Reporter prints run results for humans.
type Reporter struct {
	w            io.Writer
	useColors    bool
	printContext bool
	printer      *message.Printer
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer, config ReportConfig) *Reporter {
	return &Reporter{
		w:            w,
		useColors:    shouldUseColors(config.Color),
		printContext: config.Verbose,
		printer:      message.NewPrinter(language.English),
	}
}

// shouldUseColors determines if colors should be enabled
func shouldUseColors(force bool) bool {
	// Explicit flag wins
	if force {
		return true
	}

	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}

	// Auto-detect TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}

	return false
}

// UseColors returns whether colors are enabled
func (r *Reporter) UseColors() bool {
	return r.useColors
}

// PrintProblems prints one line per problem, ordered by file and position:
//
//	file:line:col: message (kind)
func (r *Reporter) PrintProblems(problems []error) {
	ec := NewErrorCollector()
	for _, err := range problems {
		ec.Add(err)
	}

	for _, err := range ec.Errors() {
		r.printProblem(err)
	}
}

func (r *Reporter) printProblem(err error) {
	var (
		location string
		text     string
		context  string
	)

	var perr *ParseError
	var ioErr *IOError
	switch {
	case errors.As(err, &perr):
		location = fmt.Sprintf("%s:%d:%d:", perr.File, perr.Line, perr.Column)
		text = perr.Message
		context = perr.Context
	case errors.As(err, &ioErr):
		location = ioErr.File + ":"
		text = fmt.Sprintf("%s: %v", ioErr.Op, ioErr.Err)
	default:
		text = err.Error()
	}

	kind := fmt.Sprintf(" (%s)", ErrorKind(err))
	if location == "" {
		fmt.Fprintf(r.w, "%s%s\n", text, RenderStyle(StyleGray, kind, r.useColors))
	} else {
		fmt.Fprintf(r.w, "%s %s%s\n",
			RenderStyle(StyleCyan, location, r.useColors),
			text,
			RenderStyle(StyleGray, kind, r.useColors))
	}

	if r.printContext && context != "" {
		lines := strings.Split(context, "\n")
		for i, line := range lines {
			// the last context line is the caret
			if i == len(lines)-1 {
				line = RenderStyle(StyleYellow, line, r.useColors)
			}
			fmt.Fprintf(r.w, "\t%s\n", line)
		}
	}
}

// PrintSummary prints file, identifier and byte counts.
func (r *Reporter) PrintSummary(s Summary) {
	p := r.printer

	fmt.Fprintln(r.w, "")
	verb := "Rewrote"
	if s.DryRun {
		verb = "Would rewrite"
	}
	fmt.Fprintf(r.w, "%s %s of %s\n",
		verb,
		pluralizeCount(p, s.Changed, "file", "files"),
		p.Sprintf("%d", s.Files))

	fmt.Fprintf(r.w, "Identifiers: %s, %s, %s\n",
		pluralizeCount(p, s.Classes, "class", "classes"),
		pluralizeCount(p, s.IDs, "id", "ids"),
		pluralizeCount(p, s.CustomProperties, "custom property", "custom properties"))

	saved := s.OriginalBytes - s.NewBytes
	fmt.Fprintf(r.w, "Size: %s -> %s (%s)\n",
		p.Sprintf("%d B", s.OriginalBytes),
		p.Sprintf("%d B", s.NewBytes),
		RenderStyle(StyleGreen, p.Sprintf("%d B saved", saved), r.useColors))

	if s.Problems > 0 {
		fmt.Fprintln(r.w, RenderStyle(StyleRed, pluralizeCount(p, s.Problems, "problem", "problems"), r.useColors))
	}
	if s.DryRun {
		fmt.Fprintln(r.w, RenderStyle(StyleYellow, "Dry run: no files were written", r.useColors))
	}
}

// PrintStats renders the size table of the files whose size changed.
func (r *Reporter) PrintStats(stats []FileStat) {
	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		if !st.Changed() {
			continue
		}
		rows = append(rows, []string{
			st.Path,
			FormatBytes(st.OriginalSize),
			FormatBytes(st.NewSize),
			strconv.Itoa(st.Reduced()) + "%",
		})
	}
	if len(rows) == 0 {
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("File", "Original Size", "New Size", "Reduced").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow && r.useColors {
				return style.Inherit(StyleCyan)
			}
			return style
		})
	if !r.useColors {
		t.BorderStyle(lipgloss.NewStyle())
	}

	fmt.Fprintln(r.w, t.Render())
}

// pluralizeCount returns a formatted string with count and singular/plural form
func pluralizeCount(p *message.Printer, count int, singular, plural string) string {
	if count == 1 {
		return p.Sprintf("%d %s", count, singular)
	}
	return p.Sprintf("%d %s", count, plural)
}

package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/jonathan/job-agent/internal/similarity"
	"github.com/jonathan/job-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// ruleWidth is the width of separators between listed jobs
	ruleWidth = 20
)

// Printer writes user-facing output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Println writes one line
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes formatted text
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Heading writes a blank line followed by a "--- title ---" banner
func (p *Printer) Heading(title string) {
	p.Printf("\n--- %s ---\n", title)
}

// Box prints a formatted box with a title and content. Long lines wrap at word boundaries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Box(title string, content string) {
	width := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	for _, line := range wrap(title, width) {
		fmt.Fprintf(p.out, "│ %-*s │\n", width, line)
	}
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		for _, part := range wrap(line, width) {
			fmt.Fprintf(p.out, "│ %-*s │\n", width, part)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap splits line into pieces of at most width runes, breaking between words
// and splitting words longer than width.
func wrap(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var current []rune
	for _, word := range words {
		w := []rune(word)
		for len(w) > width {
			if len(current) > 0 {
				lines = append(lines, string(current))
				current = nil
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(current) == 0:
			current = w
		case len(current)+1+len(w) <= width:
			current = append(append(current, ' '), w...)
		default:
			lines = append(lines, string(current))
			current = w
		}
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

// PrintJobs lists ranked jobs with 1-based indices, the numbers a user selects by.
func (p *Printer) PrintJobs(jobs []types.Posting) {
	p.Heading("Here are the top job matches for you")
	if len(jobs) == 0 {
		p.Println("No jobs found.")
		return
	}

	for i, job := range jobs {
		p.Printf("%d. %s at %s\n", i+1, job.Title, job.Company)
		flag := ""
		if similarity.IsLowMatch(job) {
			flag = " (low match)"
		}
		p.Printf("   Match Score: %s%s\n", FormatPercent(job), flag)
		p.Printf("   Location: %s\n", job.Location)
		p.Printf("   URL: %s\n", job.URL)
		if job.Suggestions != "" {
			p.Printf("   Resume Tip: %s\n", job.Suggestions)
		}
		p.Println(strings.Repeat("-", ruleWidth))
	}
}

// PrintJobTable renders a compact table of ranked jobs
func (p *Printer) PrintJobTable(jobs []types.Posting) error {
	data := pterm.TableData{{"#", "Title", "Company", "Match", "Location"}}
	for i, job := range jobs {
		data = append(data, []string{
			fmt.Sprintf("%d", i+1), job.Title, job.Company, FormatPercent(job), job.Location,
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	p.Println(table)
	return nil
}

// PrintApplication reports the outcome of one application attempt
func (p *Printer) PrintApplication(result types.ApplicationResult) {
	switch result.Status {
	case types.ApplySimulated:
		p.Println("Successfully submitted application (simulation).")
	case types.ApplySubmitted:
		p.Println("Successfully submitted application.")
	case types.ApplyNavigatedOnly:
		p.Printf("Opened %s; no automated flow for this site.\n", result.URL)
	case types.ApplyFailed:
		p.Printf("Error applying to %s: %s\n", result.URL, result.Err)
		p.Println("NOTE: Web automation is fragile. The website's structure might have changed.")
	}
}

// FormatPercent renders a match score as a whole percentage, or "n/a" before scoring
func FormatPercent(job types.Posting) string {
	if !job.Scored() {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", job.Score()*100)
}

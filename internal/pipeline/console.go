package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/jonathan/job-agent/internal/types"
)

// Console asks the user a question and returns the trimmed answer.
// At end of input it returns io.EOF.
type Console interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// LineConsole reads answers line by line from a reader
type LineConsole struct {
	out     io.Writer
	scanner *bufio.Scanner
}

// NewLineConsole creates a console that prints prompts to out and reads answers from in
func NewLineConsole(in io.Reader, out io.Writer) *LineConsole {
	return &LineConsole{out: out, scanner: bufio.NewScanner(in)}
}

// ReadLine prints the prompt and reads one line
func (c *LineConsole) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(c.out, prompt); err != nil {
		return "", errors.Wrap(err, "failed to write prompt")
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", errors.Wrap(err, "failed to read input")
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.scanner.Text()), nil
}

// ParseSelection turns a comma-separated list of 1-based indices into
// 0-based positions into a list of n items. "q" or "Q" selects nothing.
// Tokens that are not numbers or fall outside the list are dropped;
// duplicates are kept in input order.
func ParseSelection(input string, n int) []int {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "q") {
		return nil
	}

	var picked []int
	for _, tok := range strings.Split(input, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			continue
		}
		if i >= 1 && i <= n {
			picked = append(picked, i-1)
		}
	}
	return picked
}

// SelectJobs applies ParseSelection to the displayed list
func SelectJobs(input string, jobs []types.Posting) []types.Posting {
	var selected []types.Posting
	for _, i := range ParseSelection(input, len(jobs)) {
		selected = append(selected, jobs[i])
	}
	return selected
}

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/me/acadeval/pkg/model"
	"github.com/spf13/cobra"
)

// prompter reads answers line by line from the command's stdin.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	eof bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

// ask prints label and returns the trimmed answer, "" at end of input.
func (p *prompter) ask(label string) string {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.eof || !p.in.Scan() {
		p.eof = true
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

// more reports whether input remains.
func (p *prompter) more() bool {
	return !p.eof
}

// askDefault is ask with a value used when the answer is empty.
func (p *prompter) askDefault(label, def string) string {
	if ans := p.ask(fmt.Sprintf("%s [%s]", label, def)); ans != "" {
		return ans
	}
	return def
}

func (p *prompter) confirm(label string) bool {
	switch strings.ToLower(p.ask(label + " [y/N]")) {
	case "y", "yes", "o", "oui":
		return true
	}
	return false
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// when renders a server timestamp relative to now, or as-is when it does not parse.
func when(ts string) string {
	if ts == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return humanize.Time(t)
		}
	}
	return ts
}

func size(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return nil
}

// writeBlob saves data to path, or to name in the working directory when path is empty.
func writeBlob(w io.Writer, path, name string, data []byte) error {
	if path == "" {
		path = name
	}
	if path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "Saved %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
	return nil
}

// ack notifies the server's acknowledgement, or fallback when it is empty.
func (a *app) ack(msg *model.Message, fallback string) {
	text := fallback
	if msg != nil && msg.Message != "" {
		text = msg.Message
	}
	a.notes.Success(text)
}

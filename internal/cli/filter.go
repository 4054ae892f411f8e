package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// listFilter holds the client-side filters of list commands.
type listFilter struct {
	status  string
	subject string
	search  string
}

func (f *listFilter) register(cmd *cobra.Command, withSubject bool) {
	cmd.Flags().StringVar(&f.status, "status", "", "Only show entries with this status")
	if withSubject {
		cmd.Flags().StringVar(&f.subject, "subject", "", "Only show entries for this subject")
	}
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive text search")
}

// match reports whether an entry passes every filter. haystack holds the
// searchable text fields of the entry.
func (f *listFilter) match(status, subject string, haystack ...string) bool {
	if f.status != "" && !strings.EqualFold(f.status, status) {
		return false
	}
	if f.subject != "" && !strings.EqualFold(f.subject, subject) {
		return false
	}
	if f.search == "" {
		return true
	}
	needle := strings.ToLower(f.search)
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// filterSlice keeps the items for which keep returns true.
func filterSlice[T any](items []T, keep func(T) bool) []T {
	out := items[:0:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

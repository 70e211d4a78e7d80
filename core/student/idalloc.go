package student

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/college"
)

const (
	defaultIDFetchLimit  = 10000
	defaultIDMaxAttempts = 100
)

var (
	// errors
	ErrIDNotConfigured = errors.New("student ID format has no sequence placeholder")
	ErrIDExhausted     = errors.New("no free student ID found")

	placeholderRegex = regexp.MustCompile(`\{(prefix|year|sequence:D4|sequence:D5)\}`)
)

// IDLister lists the student IDs of a college starting with prefix.
type IDLister interface {
	ListStudentIDs(ctx context.Context, collegeID int, prefix string, limit int) ([]string, error)
}

// Allocator proposes the next free student ID of a college for a year.
// It only narrows the search: the store's uniqueness constraint has the final say,
// so two concurrent allocations may return the same ID.
type Allocator struct {
	ids         IDLister
	fetchLimit  int
	maxAttempts int
}

func NewAllocator(ids IDLister, conf core.StudentsConfig) *Allocator {
	a := &Allocator{ids: ids, fetchLimit: conf.IDFetchLimit, maxAttempts: conf.IDMaxAttempts}
	if a.fetchLimit < 1 {
		a.fetchLimit = defaultIDFetchLimit
	}
	if a.maxAttempts < 1 {
		a.maxAttempts = defaultIDMaxAttempts
	}
	return a
}

// Allocate returns a student ID for col and year that is not among the existing ones nor in exclude.
func (a *Allocator) Allocate(ctx context.Context, col college.College, year int, exclude ...string) (string, error) {
	settings := col.StudentIDSettings()
	f, err := compileIDFormat(settings, year)
	if err != nil {
		return "", err
	}

	existing, err := a.ids.ListStudentIDs(ctx, col.ID, f.lead, a.fetchLimit)
	if err != nil {
		return "", pkgerrors.Wrap(err, "listing student IDs")
	}

	taken := make(map[string]struct{}, len(existing)+len(exclude))
	maxSeq, found := 0, false
	for _, ids := range [][]string{existing, exclude} {
		for _, id := range ids {
			taken[id] = struct{}{}
			if seq, ok := f.sequenceOf(id); ok && (!found || seq > maxSeq) {
				maxSeq, found = seq, true
			}
		}
	}

	next := settings.StartingSequence
	if found {
		next = maxSeq + 1
	}
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		candidate := f.render(next)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
		next++
	}
	return "", ErrIDExhausted
}

type idPart struct {
	literal string
	width   int // > 0 for the sequence
}

// idFormat is a college's ID format bound to a prefix and a year.
type idFormat struct {
	parts   []idPart
	lead    string // rendered text before the first sequence
	matcher *regexp.Regexp
}

func compileIDFormat(settings college.IDSettings, year int) (*idFormat, error) {
	var (
		f       idFormat
		pattern strings.Builder
		lead    strings.Builder
		seqSeen bool
		last    int
	)
	addLiteral := func(s string) {
		if s == "" {
			return
		}
		f.parts = append(f.parts, idPart{literal: s})
		pattern.WriteString(regexp.QuoteMeta(s))
		if !seqSeen {
			lead.WriteString(s)
		}
	}

	format := settings.Format
	pattern.WriteString("^")
	for _, loc := range placeholderRegex.FindAllStringSubmatchIndex(format, -1) {
		addLiteral(format[last:loc[0]])
		last = loc[1]

		switch format[loc[2]:loc[3]] {
		case "prefix":
			addLiteral(settings.Prefix)
		case "year":
			addLiteral(fmt.Sprintf("%04d", year))
		case "sequence:D4":
			f.parts = append(f.parts, idPart{width: 4})
			pattern.WriteString(`(\d{4,})`)
			seqSeen = true
		case "sequence:D5":
			f.parts = append(f.parts, idPart{width: 5})
			pattern.WriteString(`(\d{5,})`)
			seqSeen = true
		}
	}
	addLiteral(format[last:])
	pattern.WriteString("$")

	if !seqSeen {
		return nil, ErrIDNotConfigured
	}
	f.lead = lead.String()
	f.matcher = regexp.MustCompile(pattern.String())
	return &f, nil
}

func (f *idFormat) render(seq int) string {
	var b strings.Builder
	for _, p := range f.parts {
		if p.width > 0 {
			_, _ = fmt.Fprintf(&b, "%0*d", p.width, seq)
		} else {
			b.WriteString(p.literal)
		}
	}
	return b.String()
}

// sequenceOf extracts the sequence number of an ID rendered with this format.
func (f *idFormat) sequenceOf(id string) (int, bool) {
	m := f.matcher.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return seq, true
}

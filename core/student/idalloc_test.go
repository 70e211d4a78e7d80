package student

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/college"
)

type fakeIDLister struct {
	ids      map[int][]string // {collegeID: studentIDs}
	prefixes []string
}

func (l *fakeIDLister) ListStudentIDs(_ context.Context, collegeID int, prefix string, limit int) ([]string, error) {
	l.prefixes = append(l.prefixes, prefix)
	var ids []string
	for _, id := range l.ids[collegeID] {
		if strings.HasPrefix(id, prefix) && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func TestAllocator_Allocate(t *testing.T) {
	defaultCollege := college.College{ID: 7, IDPrefix: "STU", IDFormat: "{prefix}{year}{sequence:D4}", IDStartingNumber: 1}
	engCollege := college.College{ID: 8, IDPrefix: "ENG", IDFormat: "{prefix}-{year}-{sequence:D5}", IDStartingNumber: 1}

	tests := []struct {
		name       string
		col        college.College
		existing   []string
		exclude    []string
		want       string
		wantPrefix string
		wantErr    error
	}{
		{name: "first of the year", col: defaultCollege, want: "STU20240001", wantPrefix: "STU2024"},
		{name: "next after existing", col: defaultCollege, existing: []string{"STU20240001"}, want: "STU20240002"},
		{
			name: "next after highest", col: defaultCollege,
			existing: []string{"STU20240003", "STU20240017", "STU20240009"}, want: "STU20240018",
		},
		{name: "previous years ignored", col: defaultCollege, existing: []string{"STU20230042"}, want: "STU20240001"},
		{name: "D4 grows past 9999", col: defaultCollege, existing: []string{"STU20249999"}, want: "STU202410000"},
		{
			name: "non-matching IDs ignored", col: defaultCollege,
			existing: []string{"STU2024-manual", "STU20240005X"}, want: "STU20240001",
		},
		{name: "excluded IDs are taken", col: defaultCollege, exclude: []string{"STU20240001"}, want: "STU20240002"},
		{
			name: "excluded and existing", col: defaultCollege,
			existing: []string{"STU20240001"}, exclude: []string{"STU20240002"}, want: "STU20240003",
		},
		{name: "D5 format", col: engCollege, want: "ENG-2024-00001", wantPrefix: "ENG-2024-"},
		{name: "D5 next", col: engCollege, existing: []string{"ENG-2024-00041"}, want: "ENG-2024-00042"},
		{
			name: "starting number", col: college.College{ID: 9, IDStartingNumber: 500},
			want: "STU20240500", wantPrefix: "STU2024",
		},
		{
			name: "starting number only when empty", col: college.College{ID: 9, IDStartingNumber: 500},
			existing: []string{"STU20240007"}, want: "STU20240008",
		},
		{
			name: "defaults", col: college.College{ID: 10},
			want: "STU20240001", wantPrefix: "STU2024",
		},
		{
			name: "year first", col: college.College{ID: 11, IDPrefix: "MED", IDFormat: "{year}/{prefix}/{sequence:D4}"},
			existing: []string{"2024/MED/0100"}, want: "2024/MED/0101", wantPrefix: "2024/MED/",
		},
		{
			name: "not configured", col: college.College{ID: 12, IDFormat: "{prefix}{year}"},
			wantErr: ErrIDNotConfigured,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeIDLister{ids: map[int][]string{tt.col.ID: tt.existing}}
			alloc := NewAllocator(lister, core.StudentsConfig{})

			got, err := alloc.Allocate(context.Background(), tt.col, 2024, tt.exclude...)
			if err != tt.wantErr {
				t.Fatalf("Allocate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Allocate() = %q, want %q", got, tt.want)
			}
			if tt.wantPrefix != "" && (len(lister.prefixes) != 1 || lister.prefixes[0] != tt.wantPrefix) {
				t.Errorf("fetched with prefixes %v, want [%q]", lister.prefixes, tt.wantPrefix)
			}
		})
	}
}

func TestAllocator_Allocate_Unique(t *testing.T) {
	col := college.College{ID: 7}
	lister := &fakeIDLister{ids: make(map[int][]string)}
	alloc := NewAllocator(lister, core.StudentsConfig{})
	format := regexp.MustCompile(`^STU2024\d{4}$`)

	seen := make(map[string]bool)
	for i := 0; i < 250; i++ {
		id, err := alloc.Allocate(context.Background(), col, 2024)
		if err != nil {
			t.Fatalf("Allocate() #%d error = %v", i, err)
		}
		if seen[id] {
			t.Fatalf("Allocate() #%d returned duplicate %q", i, id)
		}
		if !format.MatchString(id) {
			t.Errorf("Allocate() #%d = %q, does not match the format", i, id)
		}
		seen[id] = true
		lister.ids[col.ID] = append(lister.ids[col.ID], id)
	}
}

func TestAllocator_FetchLimit(t *testing.T) {
	col := college.College{ID: 7}
	lister := &fakeIDLister{ids: map[int][]string{7: {"STU20240001", "STU20240002", "STU20240003"}}}
	alloc := NewAllocator(lister, core.StudentsConfig{IDFetchLimit: 2})

	// only the fetched IDs are known; the store's uniqueness constraint catches the rest
	got, err := alloc.Allocate(context.Background(), col, 2024)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if got != "STU20240003" {
		t.Errorf("Allocate() = %q, want %q", got, "STU20240003")
	}
}

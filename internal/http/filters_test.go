package httpserver

import (
	"net/url"
	"testing"

	"github.com/storepulse/storepulse/internal/repository"
)

func TestBuildStoreFilters(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    repository.StoreListFilters
		wantErr bool
	}{
		{
			name:  "empty query",
			query: "",
			want:  repository.StoreListFilters{},
		},
		{
			name:  "search term is trimmed",
			query: "q=%20coffee%20",
			want:  repository.StoreListFilters{Query: "coffee"},
		},
		{
			name:  "sort by name",
			query: "sort=name",
			want:  repository.StoreListFilters{SortBy: repository.SortByName},
		},
		{
			name:  "sort by rating descending",
			query: "sort=rating&dir=desc",
			want:  repository.StoreListFilters{SortBy: repository.SortByRating, SortDir: "desc"},
		},
		{
			name:  "direction is case-insensitive",
			query: "sort=email&dir=ASC",
			want:  repository.StoreListFilters{SortBy: repository.SortByEmail, SortDir: "asc"},
		},
		{
			name:    "unknown sort field",
			query:   "sort=created",
			wantErr: true,
		},
		{
			name:    "unknown direction",
			query:   "sort=name&dir=sideways",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			got, err := buildStoreFilters(values)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.query)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildStoreFilters(%q): %v", tt.query, err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func FuzzBuildStoreFilters(f *testing.F) {
	f.Add("q=coffee&sort=name&dir=asc")
	f.Add("sort=rating&dir=desc")
	f.Add("q=&sort=&dir=")
	f.Add("sort=%00&dir=%ff")

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			t.Skip()
		}
		filters, err := buildStoreFilters(values)
		if err != nil {
			return
		}
		switch filters.SortBy {
		case "", repository.SortByName, repository.SortByEmail, repository.SortByAddress, repository.SortByRating:
		default:
			t.Fatalf("accepted invalid sort field %q", filters.SortBy)
		}
		switch filters.SortDir {
		case "", "asc", "desc":
		default:
			t.Fatalf("accepted invalid sort direction %q", filters.SortDir)
		}
	})
}

package freshness

import (
	"errors"
	"testing"
)

func TestParseCacheControl(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  Directives
	}{
		{
			name:  "max-age zero with no-cache",
			value: "max-age=0, no-cache, no-store",
			want:  Directives{NoCache: true, NoStore: true, MaxAge: 0, SMaxAge: Absent},
		},
		{
			name:  "no spaces",
			value: "no-transform,public,max-age=300,s-maxage=900",
			want:  Directives{NoTransform: true, Public: true, MaxAge: 300, SMaxAge: 900},
		},
		{
			name:  "hyphen placement ignored",
			value: "max-age=600, no-cache, no-store, smax-age=300",
			want:  Directives{NoCache: true, NoStore: true, MaxAge: 600, SMaxAge: 300},
		},
		{
			name:  "case insensitive names",
			value: "Private, MUST-REVALIDATE, Max-Age=60",
			want:  Directives{Private: true, MustRevalidate: true, MaxAge: 60, SMaxAge: Absent},
		},
		{
			name:  "unknown directives ignored",
			value: `stale-while-revalidate=30, community="UCI", max-age=10`,
			want:  Directives{MaxAge: 10, SMaxAge: Absent},
		},
		{
			name:  "quoted numeric value",
			value: `s-maxage="120"`,
			want:  Directives{MaxAge: Absent, SMaxAge: 120},
		},
		{
			name:  "comma inside quoted string",
			value: `private="set-cookie, x-token", max-age=5`,
			want:  Directives{Private: true, MaxAge: 5, SMaxAge: Absent},
		},
		{
			name:  "last duplicate wins",
			value: "max-age=10, max-age=20",
			want:  Directives{MaxAge: 20, SMaxAge: Absent},
		},
		{
			name:  "empty header",
			value: "",
			want:  NoDirectives(),
		},
		{
			name:  "whitespace and empty tokens",
			value: " ,  public ,, ",
			want:  Directives{Public: true, MaxAge: Absent, SMaxAge: Absent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCacheControl(tt.value)
			if err != nil {
				t.Fatalf("ParseCacheControl(%q) error = %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("ParseCacheControl(%q) = %+v, want %+v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseCacheControl_MalformedNumeric(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		directive string
	}{
		{name: "non numeric max-age", value: "max-age=abc", directive: "max-age"},
		{name: "negative s-maxage", value: "public, s-maxage=-1", directive: "s-maxage"},
		{name: "missing value", value: "max-age=", directive: "max-age"},
		{name: "bare max-age", value: "no-cache, max-age", directive: "max-age"},
		{name: "overflow", value: "max-age=99999999999999999999", directive: "max-age"},
		{name: "quoted garbage", value: `s-maxage="soon"`, directive: "s-maxage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCacheControl(tt.value)
			if err == nil {
				t.Fatalf("ParseCacheControl(%q) expected error, got %+v", tt.value, got)
			}
			if !errors.Is(err, ErrMalformedDirective) {
				t.Errorf("error %v does not wrap ErrMalformedDirective", err)
			}
			var dirErr *DirectiveError
			if !errors.As(err, &dirErr) {
				t.Fatalf("error %T is not a *DirectiveError", err)
			}
			if dirErr.Directive != tt.directive {
				t.Errorf("Directive = %q, want %q", dirErr.Directive, tt.directive)
			}
			if got != NoDirectives() {
				t.Errorf("directives on error = %+v, want empty", got)
			}
		})
	}
}

func TestParseExpires(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		wantOK bool
	}{
		{name: "rfc1123", value: "Thu, 01 Dec 1994 16:00:00 GMT", wantOK: true},
		{name: "misspelled month", value: "Thu, 01 Dc 1994 16:00:00 GMT", wantOK: false},
		{name: "empty", value: "", wantOK: false},
		{name: "zero", value: "0", wantOK: false},
		{name: "rfc850 not accepted", value: "Thursday, 01-Dec-94 16:00:00 GMT", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseExpires(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("ParseExpires(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if ok && got.IsZero() {
				t.Errorf("ParseExpires(%q) returned zero time", tt.value)
			}
		})
	}
}

func TestParseExpires_Instant(t *testing.T) {
	got, ok := ParseExpires("Thu, 01 Dec 1994 16:00:00 GMT")
	if !ok {
		t.Fatal("ParseExpires() failed")
	}
	if got.Unix() != 786297600 {
		t.Errorf("ParseExpires() = %d, want 786297600", got.Unix())
	}
}

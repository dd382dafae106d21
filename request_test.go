package gateAuth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer   padded  ", "padded", true},
		{"Bearer ", "", false},
		{"Bearer", "", false},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		h := http.Header{}
		if tc.header != "" {
			h.Set("Authorization", tc.header)
		}
		got, ok := BearerToken(h)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("BearerToken(%q) = %q,%v want %q,%v", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:4321"
	r.Header.Set("X-Forwarded-For", " 198.51.100.1 , 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")

	if got := ClientIP(r, false); got != "192.0.2.10" {
		t.Fatalf("expected RemoteAddr host without proxy trust, got %q", got)
	}
	if got := ClientIP(r, true); got != "198.51.100.1" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	if got := ClientIP(r, true); got != "198.51.100.2" {
		t.Fatalf("expected X-Real-IP, got %q", got)
	}

	r.Header.Del("X-Real-IP")
	r.RemoteAddr = "unix-socket"
	if got := ClientIP(r, true); got != "unix-socket" {
		t.Fatalf("expected raw RemoteAddr fallback, got %q", got)
	}

	r.RemoteAddr = "[2001:db8::1]:443"
	if got := ClientIP(r, false); got != "2001:db8::1" {
		t.Fatalf("expected IPv6 host, got %q", got)
	}
}

package ident

import "testing"

func TestIsReserved(t *testing.T) {
	reserved := []string{"break", "func", "go", "if", "fallthrough", "interface", "select", "var"}
	for _, name := range reserved {
		if !IsReserved(name) {
			t.Errorf("IsReserved(%q) = false", name)
		}
	}

	allowed := []string{"", "g", "goo", "Func", "funcs", "fallthroughs", "macro", "loop", "superlongidentifier", "if_"}
	for _, name := range allowed {
		if IsReserved(name) {
			t.Errorf("IsReserved(%q) = true", name)
		}
	}
}

func TestBucketsAreByLength(t *testing.T) {
	for n, bucket := range buckets {
		for _, kw := range bucket {
			for i := n; i < maxLen; i++ {
				if kw[i] != '_' {
					t.Errorf("bucket %d holds %q", n, kw[:])
				}
			}
		}
	}
}

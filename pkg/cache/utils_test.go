package cache

import "testing"

func TestGenerateKey(t *testing.T) {
	if got := GenerateKey("scan", "lock"); got != "scan:lock" {
		t.Fatalf("key: %s", got)
	}
}

func TestGenerateKeyWithParams(t *testing.T) {
	if got := GenerateKeyWithParams("scan", int64(1756177200)); got != "scan:1756177200" {
		t.Fatalf("key: %s", got)
	}
	if got := GenerateKeyWithParams("scan", "daily", 7); got != "scan:daily:7" {
		t.Fatalf("key: %s", got)
	}
	if got := GenerateKeyWithParams("scan"); got != "scan" {
		t.Fatalf("key: %s", got)
	}
}

func TestBuildPattern(t *testing.T) {
	if got := BuildPattern("scan"); got != "scan*" {
		t.Fatalf("pattern: %s", got)
	}
}

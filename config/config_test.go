package config

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseValidArgs(t *testing.T) {
	var buf bytes.Buffer
	s, err := Parse("digestcached", []string{"-p", "5000", "-C", "2", "-t", "2"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != (Settings{Port: 5000, CacheSize: 2, Threads: 2}) {
		t.Fatalf("got %+v", s)
	}
}

func TestParseMissingPort(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Parse("digestcached", []string{"-C", "2"}, &buf); err == nil {
		t.Fatal("expected error for missing -p")
	}
}

func TestParseMissingCacheSize(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Parse("digestcached", []string{"-p", "5000"}, &buf); err == nil {
		t.Fatal("expected error for missing -C")
	}
}

func TestParseThreadsDefaultWhenOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	s, err := Parse("digestcached", []string{"-p", "5000", "-C", "2", "-t", "0"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Threads != DefaultThreads {
		t.Fatalf("Threads = %d, want %d", s.Threads, DefaultThreads)
	}

	s, err = Parse("digestcached", []string{"-p", "5000", "-C", "2", "-t", "1000"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Threads != DefaultThreads {
		t.Fatalf("Threads = %d, want %d", s.Threads, DefaultThreads)
	}
}

func TestParseHelp(t *testing.T) {
	var buf bytes.Buffer
	_, err := Parse("digestcached", []string{"-h"}, &buf)
	if !errors.Is(err, ErrHelpRequested) {
		t.Fatalf("got %v, want ErrHelpRequested", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected usage to be printed")
	}
}

package registry

import (
	"testing"
	"time"
)

func TestCacheNoTTLKeepsEntries(t *testing.T) {
	c := NewCache(0)
	data := &Data{Name: "bloktastic"}
	c.SetRegistry(data)

	got, ok := c.GetRegistry()
	if !ok || got != data {
		t.Fatal("registry should be cached without expiry")
	}

	m := &Manifest{Name: "@bloktastic/hero"}
	c.SetManifest("components/hero", m)
	if got, ok := c.GetManifest("components/hero"); !ok || got != m {
		t.Error("manifest should be cached by path")
	}
	if _, ok := c.GetManifest("components/other"); ok {
		t.Error("unknown path should miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Nanosecond)
	c.SetRegistry(&Data{})
	time.Sleep(time.Millisecond)

	if _, ok := c.GetRegistry(); ok {
		t.Error("expired registry should miss")
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache(0)
	c.SetRegistry(&Data{})
	c.SetManifest("p", &Manifest{})
	c.Clear()

	if _, ok := c.GetRegistry(); ok {
		t.Error("registry should be cleared")
	}
	if _, ok := c.GetManifest("p"); ok {
		t.Error("manifests should be cleared")
	}
}

package cache

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkCacheGet(b *testing.B) {
	c := New(Options{MaxSize: 10000})
	for i := 0; i < 1000; i++ {
		path := fmt.Sprintf("src/file%d.c", i)
		c.Set(path, "digest", "plain", fileFor(path, i%10+1))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("src/file999.c")
	}
}

func BenchmarkCacheSet(b *testing.B) {
	c := New(Options{MaxSize: 10000})
	file := fileFor("src/file.c", 3)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("src/file%d.c", i), "digest", "plain", file)
	}
}

func BenchmarkDigest(b *testing.B) {
	src := []byte(strings.Repeat("int f(int x) { return x + 1; }\n", 128))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Digest(src)
	}
}

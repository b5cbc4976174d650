package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/ciyex-org/ciyex-platform-sdk/pkg/files"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/identity"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "gateway base URL")
	objects := flag.Int("n", 50, "number of objects")
	size := flag.Int("size", 1<<20, "object size in bytes")
	flag.Parse()

	client := files.NewClient(*baseURL)
	ctx := identity.WithToken(context.Background(), os.Getenv("CIYEX_TOKEN"))
	prefix := "bench/" + uuid.NewString()

	sums := make([][32]byte, *objects)
	keys := make([]string, *objects)

	start := time.Now()
	for i := range keys {
		data := make([]byte, *size)
		_, _ = rand.Read(data)
		sums[i] = blake3.Sum256(data)
		keys[i] = fmt.Sprintf("%s/%d.bin", prefix, i)

		if err := client.UploadBytes(ctx, files.UploadRequest{
			Data: data, ContentType: "application/octet-stream", Key: keys[i],
		}); err != nil {
			fmt.Printf("upload %s: %v\n", keys[i], err)
			os.Exit(1)
		}
	}
	report("upload", *objects, *size, time.Since(start))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	start = time.Now()
	for i := range keys {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			data, err := client.Download(ctx, keys[idx])
			sum := blake3.Sum256(data)
			if err != nil || !bytes.Equal(sum[:], sums[idx][:]) {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	report("download", *objects, *size, time.Since(start))

	for _, key := range keys {
		_ = client.Delete(ctx, key)
	}

	if failures > 0 {
		fmt.Printf("%d downloads failed or mismatched\n", failures)
		os.Exit(1)
	}
}

func report(op string, n, size int, elapsed time.Duration) {
	mb := float64(n*size) / (1024 * 1024)
	fmt.Printf("%-8s %d objects, %.1f MB in %v (%.1f MB/s)\n", op, n, mb, elapsed, mb/elapsed.Seconds())
}

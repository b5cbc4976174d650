package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/smithy-go/ptr"

	"github.com/ciyex-org/ciyex-platform-sdk/config"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/files"
	"github.com/ciyex-org/ciyex-platform-sdk/pkg/identity"
)

func main() {
	cfg := config.GetConfig()
	client := files.NewFromConfig(cfg)

	// A marketplace app forwards the JWT of the user it is serving.
	ctx := identity.WithToken(context.Background(), os.Getenv("CIYEX_TOKEN"))
	key := "recordings/org1/session123/video.mp4"

	fmt.Println("=== Upload ===")
	if err := client.UploadBytes(ctx, files.UploadRequest{
		Data:             []byte("example recording"),
		ContentType:      "video/mp4",
		Key:              key,
		OrgID:            ptr.String("org1"),
		SourceService:    ptr.String("telehealth"),
		ReferenceID:      ptr.String("session123"),
		OriginalFilename: ptr.String("video.mp4"),
	}); err != nil {
		fmt.Printf("Upload error: %v\n", err)
		return
	}

	fmt.Println("=== Presigned URL ===")
	if url, ok, err := client.GetPresignedURL(ctx, key, 3600); err != nil {
		fmt.Printf("Presign error: %v\n", err)
	} else if ok {
		fmt.Println(url)
	}

	size, err := client.GetObjectSize(ctx, key)
	if err != nil {
		fmt.Printf("Size error: %v\n", err)
	}
	fmt.Printf("exists=%v size=%d\n", client.Exists(ctx, key), size)

	fmt.Println("=== Download ===")
	data, err := client.Download(ctx, key)
	if err != nil {
		fmt.Printf("Download error: %v\n", err)
		return
	}
	fmt.Printf("%d bytes\n", len(data))

	if err := client.Delete(ctx, key); err != nil {
		fmt.Printf("Delete error: %v\n", err)
	}
}

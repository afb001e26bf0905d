package main

import (
	"context"
	"fmt"
	"os"

	"github.com/osvaldoandrade/schemaver/pkg/schemaversdk"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: sdk_example <schema.json>")
		os.Exit(1)
	}

	cfg, err := schemaversdk.LoadConfig(os.Getenv("SCHEMAVER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client, err := schemaversdk.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}
	candidate, err := schemaversdk.ParseDocument(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		os.Exit(1)
	}

	result, err := client.Publish(ctx, schemaversdk.PublishRequest{
		Name:   "example",
		Group:  "sdk",
		Schema: candidate,
		DryRun: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "publish: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("update=%s version=%s changes=%d\n", result.Severity, result.Version, len(result.Changes))
	for _, change := range result.Changes {
		fmt.Printf("  %s %s\n", change.Kind, change.Path)
	}
}

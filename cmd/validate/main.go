package main

import (
	"fmt"
	"os"

	"github.com/jwebster45206/world-reactor/pkg/content"
)

func main() {
	dir := os.Getenv("CONTENT_DIR")
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	source := dir
	if source == "" {
		source = "embedded catalog"
	}
	fmt.Printf("Validating %s...\n", source)

	c, err := content.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	v := &CatalogValidator{}
	v.Validate(c)

	for _, w := range v.warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if err := v.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Content catalog is valid!")
}

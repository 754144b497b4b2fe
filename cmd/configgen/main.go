package main

import (
	"flag"
	"log"

	"github.com/danmuck/dltkit/internal/config"
)

func main() {
	kind := flag.String("kind", "dltcat", "config kind: dltcat")
	output := flag.String("output", "cmd/dltcat/dltcat.toml", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "cmd/dltcat/dltcat.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		if _, err := config.LoadViewerConfig(*input); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, *input)
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, *output)
}

// Command recognize classifies previously saved drawings without opening
// the shell.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/juruen/inkrec/config"
	"github.com/juruen/inkrec/inference/tflite"
	"github.com/juruen/inkrec/log"
	"github.com/juruen/inkrec/recognizer"
	flag "github.com/ogier/pflag"
)

func main() {
	modelPath := flag.StringP("model", "m", "", "model artifact (defaults to the configured one)")
	batch := flag.Int64P("jobs", "j", 0, "files recognized in parallel")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-m model] [-j N] <file.png> ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.InitLog()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	path, err := config.ConfigPath()
	if err != nil {
		log.Error.Fatalln(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Error.Fatalln(err)
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}
	if *batch <= 0 {
		*batch = cfg.BatchSize
	}

	session := recognizer.NewSession(recognizer.OptionsFromConfig(cfg, tflite.Engine{Threads: cfg.Threads}), cfg.StrokePen())
	results := session.RecognizeFiles(context.Background(), flag.Args(), *batch)
	session.Close()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
			continue
		}
		fmt.Printf("%s\t%s\t%s\n", r.Path, r.Label, r.Scores)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

package main

import (
	"flag"
	"log"
	"os"

	"github.com/fatih/color"
	cfgPkg "github.com/xhad/docqa/pkg/config"
	"github.com/xhad/docqa/server"
)

type options struct {
	ConfigPath string
	DocURL     string
	TopK       int
	Serve      bool
	Questions  []string
}

func main() {
	config, opts := parseFlags()

	if errs := config.Validate(); len(errs) > 0 {
		for _, err := range errs {
			color.Red("config: %v", err)
		}
		os.Exit(1)
	}

	if opts.Serve {
		srv, err := server.New(config)
		if err != nil {
			log.Fatal(err)
		}
		log.Fatal(srv.ListenAndServe())
	}

	if err := run(config, opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() (*cfgPkg.Config, options) {
	var opts options
	var baseURL, dbURL, model, backend string
	var maxTokens int

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&opts.DocURL, "doc", "", "Document URL to answer questions about")
	flag.IntVar(&opts.TopK, "top-k", 0, "Number of chunks to retrieve per question")
	flag.BoolVar(&opts.Serve, "serve", false, "Run the HTTP server instead of the CLI")
	flag.StringVar(&baseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	flag.StringVar(&dbURL, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&model, "model", "", "LLM model to use")
	flag.StringVar(&backend, "index-backend", "", "Vector index backend (flat or pgvector)")
	flag.IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens for LLM response")
	flag.Parse()

	// Remaining arguments are the questions to answer.
	opts.Questions = flag.Args()

	config, err := cfgPkg.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.Fatal(err)
	}

	// Command line flags override config file values
	if baseURL != "" {
		config.LLM.BaseURL = baseURL
		config.Embedding.BaseURL = baseURL
	}
	if dbURL != "" {
		config.Index.URL = dbURL
	}
	if model != "" {
		config.LLM.Model = model
	}
	if backend != "" {
		config.Index.Backend = backend
	}
	if maxTokens != 0 {
		config.LLM.MaxTokens = maxTokens
	}

	return config, opts
}

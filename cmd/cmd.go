package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	cfgPkg "github.com/xhad/docqa/pkg/config"
	"github.com/xhad/docqa/pkg/llm"
	"github.com/xhad/docqa/pkg/pipeline"
)

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(config *cfgPkg.Config, opts options) error {
	if opts.DocURL == "" {
		return fmt.Errorf("no document URL provided, use -doc")
	}

	ctx := context.Background()

	pipe, err := pipeline.New(config)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %v", err)
	}

	color.Blue("\nProcessing document %s\n", opts.DocURL)

	indexSpinner := getSpinner(" Downloading and indexing document...")
	sess, err := pipe.ProcessDocument(ctx, opts.DocURL)
	indexSpinner.Finish()
	if errors.Is(err, pipeline.ErrNoUsableChunks) {
		// Nothing survived filtering: refuse each question and stop.
		color.Yellow("\nDocument contains no usable content")
		for _, question := range opts.Questions {
			color.Green("\nQ: %s", question)
			color.Cyan("A: %s", llm.NoContextAnswer)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to process document: %v", err)
	}
	defer sess.Close()

	color.Green("✓ Indexed %d chunks\n", sess.Store.Len())

	topK := opts.TopK
	if topK <= 0 {
		topK = config.Retrieval.DefaultTopK
	}
	if topK > config.Retrieval.MaxTopK {
		topK = config.Retrieval.MaxTopK
	}

	// Batch mode: answer the questions given on the command line and exit.
	if len(opts.Questions) > 0 {
		answerBar := getProgressBar(len(opts.Questions), " Answering questions...")
		answers := make([]string, 0, len(opts.Questions))
		for _, question := range opts.Questions {
			answer, err := pipe.Answer(ctx, sess, question, topK)
			if err != nil {
				answerBar.Finish()
				return fmt.Errorf("failed to answer %q: %v", question, err)
			}
			answers = append(answers, answer)
			answerBar.Add(1)
		}
		answerBar.Finish()

		for i, question := range opts.Questions {
			color.Green("\nQ: %s", question)
			color.Cyan("A: %s", answers[i])
		}
		return nil
	}

	// Interactive mode with colored output
	color.Cyan("\nAsk questions about the document (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.ToLower(question) == "exit" {
			break
		}

		answerSpinner := getSpinner(" Generating answer...")
		answer, err := pipe.Answer(ctx, sess, question, topK)
		answerSpinner.Finish()

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		assistantPrompt("\nAssistant: %s\n", answer)
	}

	return nil
}

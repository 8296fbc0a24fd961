package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"modelhub-sdk/cmd/modelhub/internal/config"
	"modelhub-sdk/cmd/modelhub/internal/utils"
	"modelhub-sdk/models"
	"modelhub-sdk/sandbox"
)

// Exit codes of `modelhub invoke`
const (
	exitSuccess  = 0
	exitInvalid  = 1
	exitDegraded = 2
	exitRejected = 3
)

// exitCode maps an outcome to the process exit status
func exitCode(o sandbox.Outcome) int {
	switch v := o.(type) {
	case *sandbox.Success:
		return exitSuccess
	case *sandbox.ValidationError:
		return exitInvalid
	case *sandbox.RemoteError:
		if v.Outage {
			return exitDegraded
		}
		return exitRejected
	}
	return exitDegraded
}

// runInvoke performs one sandbox attempt and prints the outcome as JSON
func runInvoke(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.ParseInvokeFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitInvalid
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg.Config)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitInvalid
	}
	defer a.Close()

	model, err := a.source.Get(ctx, cfg.ModelID)
	if err != nil {
		fmt.Fprintln(stderr, "Error: failed to load model:", err)
		return exitDegraded
	}

	endpoint, err := pickEndpoint(model, cfg.Method, cfg.Path)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitInvalid
	}

	input, err := readInput(cfg, stdin)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitInvalid
	}
	if input == "" {
		input, _ = sandbox.InitialInput(model, endpoint)
	}

	utils.LogDebug("invoke %s %s", model.ID, endpoint.Label())
	outcome := a.newController().Invoke(ctx, model.ID, endpoint, input)

	data, err := sandbox.MarshalOutcome(outcome)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitDegraded
	}
	fmt.Fprintln(stdout, string(data))

	return exitCode(outcome)
}

func pickEndpoint(model *models.Model, method, path string) (models.Endpoint, error) {
	if path == "" {
		ep, err := sandbox.SelectDefault(model.Endpoints)
		if err != nil {
			return models.Endpoint{}, &sandbox.NoEndpointsError{ModelID: model.ID}
		}
		return ep, nil
	}

	ep, ok := model.Endpoint(strings.ToUpper(method), path)
	if !ok {
		return models.Endpoint{}, fmt.Errorf("model %s has no endpoint %s %s", model.ID, method, path)
	}
	return ep, nil
}

func readInput(cfg config.InvokeConfig, stdin io.Reader) (string, error) {
	switch cfg.ReadFile {
	case "":
		return cfg.Input, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(cfg.ReadFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/rivora/internal/services"
	"github.com/desertthunder/rivora/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) apiService() (*services.APIService, error) {
	if r.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	return r.api, nil
}

// APIGet makes a direct GET request to a running 'rivora serve'
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	api, err := r.apiService()
	if err != nil {
		return err
	}

	path := cmd.StringArg("path")
	useJSON := cmd.Bool("json")

	r.logger.Info("GET request", "path", path)

	resp, err := api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !useJSON)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request with a JSON body to a running 'rivora serve'
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	api, err := r.apiService()
	if err != nil {
		return err
	}

	path := cmd.StringArg("path")
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIHealth checks that a 'rivora serve' instance is reachable.
func (r *Runner) APIHealth(ctx context.Context, cmd *cli.Command) error {
	api, err := r.apiService()
	if err != nil {
		return err
	}
	if err := api.Health(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Service is healthy\n")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dataops/adapters/api"
	"dataops/adapters/excel"
	"dataops/internal/config"
	"dataops/internal/logging"
	"dataops/ports"
	"dataops/ui/widgets"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	apiURL     string
	timeout    time.Duration
	jsonOut    bool
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "dataops-cli",
		Short:         "Command-line client for the data profiling API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv("DATAOPS_CONFIG"), "Optional config file (yaml, json, toml)")
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Analysis API base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Request timeout (overrides REQUEST_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print the raw JSON response")

	rootCmd.AddCommand(
		newUploadCmd(opts),
		newHealthCmd(opts),
		newModelsCmd(opts),
		newDeleteCmd(opts),
		newProfileCmd(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newClient loads configuration and builds the API client
func newClient(opts *rootOptions) (*api.Client, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.timeout > 0 {
		cfg.API.Timeout = opts.timeout
	}

	logger := logging.New(cfg.Log)
	if cfg.Log.Level == "info" {
		// request logs would interleave with the report
		logger.SetLevel(logrus.WarnLevel)
	}
	logger.SetOutput(os.Stderr)

	return api.NewClient(api.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, logger), nil
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var noLLM bool
	var description string
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a data file and print its profile",
		Long: `Upload a data file (.csv, .xlsx, .xls, .json, .parquet) to the analysis API
and print the profiling report.

Example: dataops-cli upload orders.csv --description "Q1 orders" --xlsx orders_profile.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			return runUpload(cmd.Context(), client, args[0], !noLLM, description, xlsxPath, opts.jsonOut)
		},
	}

	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "Skip AI insight generation")
	cmd.Flags().StringVar(&description, "description", "", "Optional dataset description")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report as an Excel workbook")
	return cmd
}

func runUpload(ctx context.Context, client *api.Client, path string, useLLM bool, description, xlsxPath string, jsonOut bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Uploading %s (%s)...\n", filepath.Base(path), widgets.FormatFileSize(info.Size()))

	result, err := client.UploadAndProfile(ctx, ports.Upload{Name: filepath.Base(path), Body: f}, useLLM, description)
	if err != nil {
		return err
	}

	if xlsxPath != "" {
		out, err := os.Create(xlsxPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", xlsxPath, err)
		}
		if err := excel.WriteReport(out, result); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", xlsxPath)
	}

	if jsonOut {
		return printJSON(result)
	}
	fmt.Print(widgets.RenderText(result))
	return nil
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis API is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			resp, err := client.HealthCheck(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(resp)
			}
			fmt.Printf("%s: %v (version %v)\n", client.BaseURL(), resp["status"], resp["version"])
			return nil
		},
	}
}

func newModelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the analysis API can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			resp, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(resp)
			}
			available, _ := resp["available_models"].(map[string]any)
			for name, id := range available {
				marker := ""
				if id == resp["default_model"] {
					marker = " (default)"
				}
				fmt.Printf("%-10s %v%s\n", name, id, marker)
			}
			return nil
		},
	}
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [upload-id]",
		Short: "Delete an upload from the analysis API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			resp, err := client.DeleteUpload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(resp)
			}
			fmt.Println(resp["message"])
			return nil
		},
	}
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [upload-id]",
		Short: "Fetch a stored profile by upload id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(opts)
			if err != nil {
				return err
			}
			resp, err := client.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

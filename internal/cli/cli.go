// Package cli implements the osteocare command-line client.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/osteocare-ai/osteocare/internal/config"
	"github.com/osteocare-ai/osteocare/internal/domain"
	"github.com/osteocare-ai/osteocare/internal/encoder"
	"github.com/osteocare-ai/osteocare/internal/logging"
	"github.com/osteocare-ai/osteocare/internal/normalizer"
	"github.com/osteocare-ai/osteocare/internal/postprocess"
	"github.com/osteocare-ai/osteocare/internal/service"
	"github.com/osteocare-ai/osteocare/pkg/external"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// CLI runs client subcommands.
type CLI struct {
	out    io.Writer
	errOut io.Writer
}

// New creates a CLI writing results to out and diagnostics to errOut.
func New(out, errOut io.Writer) *CLI {
	return &CLI{out: out, errOut: errOut}
}

type encodedForm struct {
	Columns  []string  `json:"columns"`
	Features []float64 `json:"features"`
	BMI      float64   `json:"bmi"`
}

// options holds the flags shared by every subcommand.
type options struct {
	configFile  string
	baseURL     string
	formFile    string
	sets        []string
	file        string
	contentType string
}

// Run executes the command in args and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	if err := c.run(ctx, args); err != nil {
		var ae *domain.AssessmentError
		switch {
		case errors.As(err, &ae):
			fmt.Fprintln(c.errOut, ae.UserMessage())
		case errors.Is(err, ErrUsage):
			fmt.Fprintf(c.errOut, "%v\n\n", err)
			c.showHelp(c.errOut)
		default:
			fmt.Fprintf(c.errOut, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *CLI) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.showHelp(c.out)
		return nil
	}

	command := args[0]
	if command == "help" || command == "--help" || command == "-h" {
		c.showHelp(c.out)
		return nil
	}

	opts, err := parseOptions(args[1:])
	if err != nil {
		return err
	}

	switch command {
	case "encode":
		form, err := loadForm(opts)
		if err != nil {
			return err
		}
		vector := encoder.Encode(form)
		return c.printJSON(encodedForm{
			Columns:  domain.FeatureNames[:],
			Features: vector.Slice(),
			BMI:      encoder.BMI(form),
		})
	case "manual":
		form, err := loadForm(opts)
		if err != nil {
			return err
		}
		svc, err := c.buildService(opts)
		if err != nil {
			return err
		}
		result, err := svc.AssessManual(ctx, form)
		if err != nil {
			return err
		}
		return c.printJSON(result)
	case "report", "xray", "mri":
		modality, _ := domain.ParseModality(command)
		upload, err := loadUpload(opts)
		if err != nil {
			return err
		}
		svc, err := c.buildService(opts)
		if err != nil {
			return err
		}
		result, err := svc.Assess(ctx, modality, upload)
		if err != nil {
			return err
		}
		return c.printJSON(result)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

func parseOptions(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		flag := args[i]
		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%w: %s requires a value", ErrUsage, flag)
			}
			i++
			return args[i], nil
		}

		var err error
		switch flag {
		case "--config", "-c":
			opts.configFile, err = value()
		case "--base-url", "-u":
			opts.baseURL, err = value()
		case "--form", "-f":
			opts.formFile, err = value()
		case "--set", "-s":
			var kv string
			kv, err = value()
			opts.sets = append(opts.sets, kv)
		case "--file":
			opts.file, err = value()
		case "--content-type", "-t":
			opts.contentType, err = value()
		default:
			return opts, fmt.Errorf("%w: unknown flag %q", ErrUsage, flag)
		}
		if err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// loadForm merges the JSON form file (if any) with --set overrides.
func loadForm(opts options) (domain.ClinicalFormState, error) {
	form := domain.ClinicalFormState{}
	if opts.formFile != "" {
		data, err := os.ReadFile(opts.formFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read form: %w", err)
		}
		if err := json.Unmarshal(data, &form); err != nil {
			return nil, fmt.Errorf("failed to parse form %s: %w", opts.formFile, err)
		}
	}
	for _, kv := range opts.sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: --set expects key=value, got %q", ErrUsage, kv)
		}
		form[strings.TrimSpace(key)] = parseValue(value)
	}
	return form, nil
}

// parseValue keeps numbers numeric so the encoder sees them as entered.
func parseValue(s string) interface{} {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return s
}

var extraTypes = map[string]string{
	".dcm":   "application/dicom",
	".dicom": "application/dicom",
	".tif":   "image/tiff",
	".tiff":  "image/tiff",
}

func loadUpload(opts options) (domain.FileUpload, error) {
	if opts.file == "" {
		return domain.FileUpload{}, fmt.Errorf("%w: --file is required", ErrUsage)
	}
	content, err := os.ReadFile(opts.file)
	if err != nil {
		return domain.FileUpload{}, fmt.Errorf("failed to read file: %w", err)
	}

	contentType := opts.contentType
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(opts.file))
		if t, ok := extraTypes[ext]; ok {
			contentType = t
		} else if t := mime.TypeByExtension(ext); t != "" {
			contentType = t
		} else {
			contentType = http.DetectContentType(content)
		}
	}

	return domain.FileUpload{
		Filename:    filepath.Base(opts.file),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (c *CLI) buildService(opts options) (*service.AssessmentService, error) {
	var cfgOpts []config.Option
	if opts.configFile != "" {
		cfgOpts = append(cfgOpts, config.WithConfigFile(opts.configFile))
	}
	manager, err := config.NewManager(cfgOpts...)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		if err := manager.Set("backend.base_url", opts.baseURL); err != nil {
			return nil, err
		}
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := manager.GetConfig()
	logger := logging.New(cfg.Logging)

	processor, err := postprocess.NewProcessorFromConfig(cfg.PostProcess, logger)
	if err != nil {
		return nil, err
	}

	return service.NewAssessmentService(
		external.NewPredictionClient(cfg.Backend, logger),
		normalizer.New(),
		processor,
		logger,
	), nil
}

func (c *CLI) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (c *CLI) showHelp(w io.Writer) {
	help := `
Osteocare risk-assessment client

Usage:
  osteocare <command> [options]

Commands:
  manual   Encode a clinical form and request a prediction
  report   Submit a DEXA or medical report (PDF or image)
  xray     Submit a bone X-ray image
  mri      Submit an MRI or CT image
  encode   Print the 16-slot feature vector for a form without submitting it

Options:
  --form, -f <path>          Clinical form as a JSON object
  --set, -s <key=value>      Set a single form field (repeatable)
  --file <path>              File to upload (report, xray, mri)
  --content-type, -t <type>  Override the detected content type
  --base-url, -u <url>       Prediction backend base URL
  --config, -c <path>        Configuration file

Examples:
  osteocare manual --set age=68 --set gender=Female --set weight=60 --set height=160
  osteocare mri --file scan.dcm --base-url http://localhost:8000
  osteocare encode --form form.json
`
	fmt.Fprintln(w, help)
}

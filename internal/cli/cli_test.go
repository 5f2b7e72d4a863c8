package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osteocare-ai/osteocare/internal/api"
	"github.com/osteocare-ai/osteocare/internal/config"
	"github.com/osteocare-ai/osteocare/internal/domain"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("OSTEOCARE_LOGGING_OUTPUT", "none")
	var out, errOut bytes.Buffer
	code := New(&out, &errOut).Run(context.Background(), args)
	return code, out.String(), errOut.String()
}

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	m, err := config.NewManager()
	require.NoError(t, err)
	require.NoError(t, m.Set("server.rate_limit", 0))

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	s, err := api.NewServer(m, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestCLI_Help(t *testing.T) {
	code, out, _ := run(t)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage:")

	code, out, _ = run(t, "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "osteocare <command>")
}

func TestCLI_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"scan"}, `unknown command "scan"`},
		{"unknown flag", []string{"encode", "--verbose"}, `unknown flag "--verbose"`},
		{"missing flag value", []string{"encode", "--set"}, "--set requires a value"},
		{"malformed set", []string{"encode", "--set", "age"}, "--set expects key=value"},
		{"missing file", []string{"xray"}, "--file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := run(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.want)
			assert.Contains(t, errOut, "Usage:")
		})
	}
}

func TestCLI_Encode(t *testing.T) {
	formPath := filepath.Join(t.TempDir(), "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(`{"age": 55, "gender": "Female"}`), 0o600))

	code, out, errOut := run(t, "encode", "--form", formPath, "--set", "age=68", "--set", "smoking=Current")
	require.Equal(t, 0, code, errOut)

	var encoded encodedForm
	require.NoError(t, json.Unmarshal([]byte(out), &encoded))
	require.Len(t, encoded.Features, domain.FeatureCount)
	assert.Equal(t, domain.FeatureNames[:], encoded.Columns)
	assert.Equal(t, 68.0, encoded.Features[domain.SlotAge])
	assert.Greater(t, encoded.BMI, 0.0)
}

func TestCLI_EncodeBadForm(t *testing.T) {
	formPath := filepath.Join(t.TempDir(), "form.json")
	require.NoError(t, os.WriteFile(formPath, []byte(`[1, 2]`), 0o600))

	code, _, errOut := run(t, "encode", "--form", formPath)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Error: failed to parse form")
}

func TestCLI_Manual(t *testing.T) {
	srv := backend(t)

	code, out, errOut := run(t, "manual",
		"--base-url", srv.URL,
		"--set", "age=68", "--set", "gender=Female",
		"--set", "weight=60", "--set", "height=160",
		"--set", "vitaminD=15", "--set", "calciumLevel=8",
		"--set", "exercise=Sedentary", "--set", "familyHistory=Yes",
	)
	require.Equal(t, 0, code, errOut)

	var result domain.NormalizedResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.ModalityManual, result.Modality)
	assert.Contains(t, []string{domain.LabelNormal, domain.LabelOsteopenia, domain.LabelOsteoporosis}, result.Diagnosis)
	assert.NotEmpty(t, result.Suggestions)
}

func TestCLI_MRI(t *testing.T) {
	srv := backend(t)
	scan := filepath.Join(t.TempDir(), "scan.dcm")
	require.NoError(t, os.WriteFile(scan, []byte("DICM-slice"), 0o600))

	code, out, errOut := run(t, "mri", "--file", scan, "--base-url", srv.URL)
	require.Equal(t, 0, code, errOut)

	var result domain.NormalizedResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.ModalityMRI, result.Modality)
	assert.GreaterOrEqual(t, result.Confidence, 0.88)
	assert.LessOrEqual(t, result.Confidence, 0.96)
	assert.NotEmpty(t, result.ExtractedMetrics)
}

func TestCLI_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Model inference error"}`))
	}))
	defer srv.Close()

	code, out, errOut := run(t, "manual", "--base-url", srv.URL, "--set", "age=70")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Equal(t, domain.FailureMessage(domain.ModalityManual)+"\n", errOut)
}

func TestLoadUpload_ContentType(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, content []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, content, 0o600))
		return p
	}

	tests := []struct {
		name     string
		opts     options
		expected string
	}{
		{"dicom extension", options{file: write("a.dcm", []byte("x"))}, "application/dicom"},
		{"pdf extension", options{file: write("r.pdf", []byte("%PDF"))}, "application/pdf"},
		{"sniffed", options{file: write("noext", []byte("\x89PNG\r\n\x1a\n0000"))}, "image/png"},
		{"explicit", options{file: write("b.bin", []byte("x")), contentType: "image/jpeg"}, "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload, err := loadUpload(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, upload.ContentType)
			assert.Equal(t, filepath.Base(tt.opts.file), upload.Filename)
		})
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command against a settings file in a temp dir.
func runCLI(t *testing.T, settings string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(settings), 0o600))

	opts := &rootOptions{settingsPath: path, getenv: envMap(nil)}
	root := newRootCmd(opts)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func testSettings(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"db_path":           filepath.Join(t.TempDir(), "vetassist.db"),
		"log_level":         "error",
		"progress_interval": "1ms",
		"progress_step":     50,
	})
	require.NoError(t, err)
	return string(b)
}

func TestVersionCommand(t *testing.T) {
	// Broken settings must not matter: version skips config loading.
	out, err := runCLI(t, `{`, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestBadSettingsFail(t *testing.T) {
	_, err := runCLI(t, `{"progress_step": "many"}`, "catalog")
	assert.Error(t, err)
}

func TestCatalogCommand(t *testing.T) {
	settings := testSettings(t)

	out, err := runCLI(t, settings, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Animals")
	assert.Contains(t, out, "nasal-discharge")

	out, err = runCLI(t, settings, "catalog", "--jq", "[.animals[].type]")
	require.NoError(t, err)
	var types []string
	require.NoError(t, json.Unmarshal([]byte(out), &types))
	assert.Equal(t, []string{"dog", "cat", "bird", "rabbit", "other"}, types)

	_, err = runCLI(t, settings, "catalog", "--format", "yaml")
	assert.Error(t, err)
}

func TestDiagnoseCommand_JSON(t *testing.T) {
	out, err := runCLI(t, testSettings(t),
		"diagnose", "--animal", "cat", "--symptom", "sneeze,nasal-discharge", "--no-save", "-f", "json")
	require.NoError(t, err)

	var got struct {
		SessionID string `json:"session_id"`
		Result    struct {
			Disease string `json:"disease"`
			Urgency string `json:"urgency"`
		} `json:"result"`
		Plan struct {
			Medications []json.RawMessage `json:"medications"`
		} `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.SessionID)
	assert.Equal(t, "Upper respiratory infection (URI)", got.Result.Disease)
	assert.Equal(t, "medium", got.Result.Urgency)
	assert.NotEmpty(t, got.Plan.Medications)
}

func TestDiagnoseCommand_Errors(t *testing.T) {
	settings := testSettings(t)

	_, err := runCLI(t, settings, "diagnose", "--animal", "cat")
	assert.Error(t, err, "symptom flag is required")

	_, err = runCLI(t, settings, "diagnose", "--animal", "lizard", "--symptom", "cough", "--no-save")
	assert.ErrorContains(t, err, "INVALID_ANIMAL_TYPE")

	_, err = runCLI(t, settings, "diagnose", "--animal", "dog", "--symptom", "hiccups", "--no-save")
	assert.ErrorContains(t, err, "INVALID_SYMPTOM")
}

func TestDiagnoseThenHistoryAndRuns(t *testing.T) {
	settings := testSettings(t)

	out, err := runCLI(t, settings,
		"diagnose", "--animal", "dog", "--symptom", "cough", "-f", "json")
	require.NoError(t, err)
	var diag struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &diag))

	out, err = runCLI(t, settings, "history", "--animal", "dog", "-f", "json")
	require.NoError(t, err)
	var history []struct {
		SessionID string `json:"session_id"`
		Run       uint64 `json:"run"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 1)
	assert.Equal(t, diag.SessionID, history[0].SessionID)
	assert.Equal(t, uint64(1), history[0].Run)

	out, err = runCLI(t, settings, "runs", diag.SessionID, "-f", "json")
	require.NoError(t, err)
	var runs []struct {
		Run     uint64 `json:"run"`
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "succeeded", runs[0].Outcome)

	_, err = runCLI(t, settings, "history", "--urgency", "whenever")
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	cases := filepath.Join(dir, "cases.yaml")
	require.NoError(t, os.WriteFile(cases, []byte(`
cases:
  - name: cat-uri
    animal: cat
    symptoms: [sneeze, nasal-discharge]
    expect:
      disease: Upper respiratory infection (URI)
      urgency: medium
  - name: wrong-expectation
    animal: cat
    symptoms: [sneeze]
    expect:
      urgency: emergency
`), 0o600))

	out, err := runCLI(t, testSettings(t), "batch", cases, "-f", "json")
	require.Error(t, err, "one case does not match")
	assert.Contains(t, err.Error(), "1 of 2 cases")

	var report struct {
		Passed int `json:"passed"`
		Failed int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
}

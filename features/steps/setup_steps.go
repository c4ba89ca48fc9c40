//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-labeler/cmd"
	"video-labeler/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	credentialsPath string
	setupCancelled  bool
	originalContent string
	output          *bytes.Buffer
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements cmd.Prompter for testing
type MockPrompter struct {
	inputResponses    []string
	passwordResponses []string
	confirmResponses  []bool
	inputIndex        int
	passwordIndex     int
	confirmIndex      int
}

func NewMockPrompter(inputs, passwords []string, confirms []bool) *MockPrompter {
	return &MockPrompter{
		inputResponses:    inputs,
		passwordResponses: passwords,
		confirmResponses:  confirms,
	}
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if m.inputIndex >= len(m.inputResponses) {
		if defaultValue != "" {
			return defaultValue, nil
		}
		return "", fmt.Errorf("no more input responses available for message: %s", message)
	}
	response := m.inputResponses[m.inputIndex]
	m.inputIndex++
	return response, nil
}

func (m *MockPrompter) Password(message string) (string, error) {
	if m.passwordIndex >= len(m.passwordResponses) {
		return "", fmt.Errorf("no more password responses available for message: %s", message)
	}
	response := m.passwordResponses[m.passwordIndex]
	m.passwordIndex++
	return response, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if m.confirmIndex >= len(m.confirmResponses) {
		return defaultValue, nil
	}
	response := m.confirmResponses[m.confirmIndex]
	m.confirmIndex++
	return response, nil
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedSetupContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.credentialsPath = filepath.Join(tempDir, "credentials.yml")
		testCtx.setupCancelled = false
		testCtx.originalContent = ""
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^no credentials file exists for setup$`, testCtx.noCredentialsFileExistsForSetup)
	ctx.Step(`^a credentials file already exists for setup$`, testCtx.aCredentialsFileAlreadyExistsForSetup)
	ctx.Step(`^I run the setup command with inputs:$`, testCtx.iRunTheSetupCommandWithInputs)
	ctx.Step(`^I run the setup command with confirmation "([^"]*)"$`, testCtx.iRunTheSetupCommandWithConfirmation)
	ctx.Step(`^a credentials file should exist$`, testCtx.aCredentialsFileShouldExist)
	ctx.Step(`^the credentials should have ([a-z_]+) "([^"]*)"$`, testCtx.theCredentialsShouldHave)
	ctx.Step(`^the setup should be cancelled$`, testCtx.theSetupShouldBeCancelled)
	ctx.Step(`^the existing credentials should be unchanged$`, testCtx.theExistingCredentialsShouldBeUnchanged)
}

func (s *setupContext) noCredentialsFileExistsForSetup() error {
	if _, err := os.Stat(s.credentialsPath); err == nil {
		return os.Remove(s.credentialsPath)
	}
	return nil
}

func (s *setupContext) aCredentialsFileAlreadyExistsForSetup() error {
	content := `bucket_name: original-bucket
region: us-east-1
access_key_id: AKIAORIGINAL
secret_access_key: original
`
	s.originalContent = content
	return os.WriteFile(s.credentialsPath, []byte(content), 0600)
}

func (s *setupContext) iRunTheSetupCommandWithInputs(table *godog.Table) error {
	inputs, passwords, confirms := parseInputTable(table)
	prompter := NewMockPrompter(inputs, passwords, confirms)

	s.err = cmd.RunSetupWithPrompter(prompter, s.credentialsPath, s.output)
	if s.err != nil {
		return fmt.Errorf("setup command failed: %w", s.err)
	}
	return nil
}

func (s *setupContext) iRunTheSetupCommandWithConfirmation(confirmation string) error {
	confirm := strings.ToLower(confirmation) == "y"
	prompter := NewMockPrompter(nil, nil, []bool{confirm})

	s.err = cmd.RunSetupWithPrompter(prompter, s.credentialsPath, s.output)
	if !confirm {
		s.setupCancelled = true
	}
	return nil
}

// parseInputTable sorts table rows into input, password and yes/no answers.
// Prompts starting with "use" or "disable" are confirmations; "secret" is a password.
func parseInputTable(table *godog.Table) ([]string, []string, []bool) {
	var inputs, passwords []string
	var confirms []bool

	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		prompt := strings.ToLower(row.Cells[0].Value)
		value := row.Cells[1].Value

		switch {
		case strings.HasPrefix(prompt, "use"), strings.HasPrefix(prompt, "disable"), strings.HasPrefix(prompt, "overwrite"):
			confirms = append(confirms, strings.ToLower(value) == "y")
		case strings.HasPrefix(prompt, "secret"):
			passwords = append(passwords, value)
		default:
			inputs = append(inputs, value)
		}
	}

	return inputs, passwords, confirms
}

func (s *setupContext) aCredentialsFileShouldExist() error {
	if _, err := os.Stat(s.credentialsPath); os.IsNotExist(err) {
		return fmt.Errorf("credentials file does not exist at %s", s.credentialsPath)
	}
	return nil
}

func (s *setupContext) theCredentialsShouldHave(field, expected string) error {
	cfg, err := config.Load(s.credentialsPath)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	var actual string
	switch field {
	case "bucket_name":
		actual = cfg.BucketName
	case "region":
		actual = cfg.Region
	case "access_key_id":
		actual = cfg.AccessKeyID
	case "secret_access_key":
		actual = cfg.SecretAccessKey
	case "endpoint":
		actual = cfg.Endpoint
	case "label_provider":
		actual = cfg.Provider()
	default:
		return fmt.Errorf("unknown credentials field %q", field)
	}

	if actual != expected {
		return fmt.Errorf("expected %s %q, got %q", field, expected, actual)
	}
	return nil
}

func (s *setupContext) theSetupShouldBeCancelled() error {
	if !s.setupCancelled {
		return fmt.Errorf("expected setup to be cancelled")
	}
	if !strings.Contains(s.output.String(), "Setup cancelled.") {
		return fmt.Errorf("expected cancellation message, got %q", s.output.String())
	}
	return nil
}

func (s *setupContext) theExistingCredentialsShouldBeUnchanged() error {
	content, err := os.ReadFile(s.credentialsPath)
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if string(content) != s.originalContent {
		return fmt.Errorf("credentials content was changed")
	}
	return nil
}

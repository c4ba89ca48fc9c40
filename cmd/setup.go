package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"video-labeler/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Password(message string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Password(message string) (string, error) {
	result := ""
	prompt := &survey.Password{
		Message: message,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

// DefaultRegion is offered when prompting for the bucket region
const DefaultRegion = "us-west-2"

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the credentials file interactively",
	Long: `Prompts for the S3 bucket, region and access keys and writes them to
credentials.yml (or the path given with --credentials).

Optionally configures a custom S3 endpoint such as a local MinIO server,
and Google Cloud Vision as the label provider instead of Rekognition.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, rootFlags.CredentialsPath, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, credentialsPath string, output io.Writer) error {
	if credentialsPath == "" {
		credentialsPath = config.DefaultPath
	}

	if _, err := os.Stat(credentialsPath); err == nil {
		overwrite, err := prompter.Confirm(fmt.Sprintf("%s already exists. Overwrite?", credentialsPath), false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(output, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(output, "Welcome to video-labeler setup!")
	fmt.Fprintln(output)

	cfg := &config.Config{}

	if err := promptBucket(prompter, cfg); err != nil {
		return err
	}

	if err := promptKeys(prompter, cfg); err != nil {
		return err
	}

	if err := promptEndpoint(prompter, cfg); err != nil {
		return err
	}

	if err := promptProvider(prompter, cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if dir := filepath.Dir(credentialsPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}

	if err := config.Save(cfg, credentialsPath); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintln(output)
	fmt.Fprintf(output, "Credentials saved to %s\n", credentialsPath)
	return nil
}

func promptBucket(prompter Prompter, cfg *config.Config) error {
	bucket, err := prompter.Input("S3 bucket name for video frames?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if bucket == "" {
		return fmt.Errorf("bucket name is required")
	}
	cfg.BucketName = bucket

	region, err := prompter.Input("Bucket region?", DefaultRegion)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if region == "" {
		region = DefaultRegion
	}
	cfg.Region = region

	return nil
}

func promptKeys(prompter Prompter, cfg *config.Config) error {
	accessKey, err := prompter.Input("Access key ID?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if accessKey == "" {
		return fmt.Errorf("access key ID is required")
	}
	cfg.AccessKeyID = accessKey

	secret, err := prompter.Password("Secret access key?")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if secret == "" {
		return fmt.Errorf("secret access key is required")
	}
	cfg.SecretAccessKey = secret

	return nil
}

func promptEndpoint(prompter Prompter, cfg *config.Config) error {
	custom, err := prompter.Confirm("Use a custom S3 endpoint (e.g. MinIO)?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !custom {
		return nil
	}

	endpoint, err := prompter.Input("S3 endpoint host:port?", "localhost:9000")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Endpoint = endpoint

	insecure, err := prompter.Confirm("Disable SSL for this endpoint?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.DisableSSL = insecure

	return nil
}

func promptProvider(prompter Prompter, cfg *config.Config) error {
	useVision, err := prompter.Confirm("Use Google Cloud Vision for labels instead of Rekognition?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !useVision {
		return nil
	}
	cfg.LabelProvider = config.ProviderVision

	credentials, err := prompter.Input("Path to Google service account JSON (blank for default credentials)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.GoogleCredentialsFile = credentials

	return nil
}

//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"video-labeler/application/pipeline"
	"video-labeler/cmd"
	"video-labeler/domain/frame"
	"video-labeler/domain/labeling"
	"video-labeler/domain/storage"

	"github.com/cucumber/godog"
)

// pipelineContext holds test state for pipeline scenarios
type pipelineContext struct {
	tempDir   string
	tmpDir    string
	outputDir string

	grabber  *pipelineMockGrabber
	store    *pipelineMockStore
	detector *pipelineMockDetector

	flags  cmd.RunFlags
	output *bytes.Buffer
	result *pipeline.Result
	err    error
}

var SharedPipelineContext = &pipelineContext{}

// --- Mock implementations ---

type pipelineMockGrabber struct {
	lastOffset int
	calls      int
}

func (g *pipelineMockGrabber) Grab(ctx context.Context, videoPath string, offsetSeconds int, outputPath string) frame.Extraction {
	g.calls++
	if offsetSeconds >= g.lastOffset {
		return frame.Extraction{Outcome: frame.ProcessError, Code: 1}
	}
	if err := os.WriteFile(outputPath, []byte(fmt.Sprintf("frame@%d", offsetSeconds)), 0644); err != nil {
		return frame.Extraction{Outcome: frame.ProcessError, Code: -1}
	}
	return frame.Extraction{Outcome: frame.Success, Path: outputPath}
}

type pipelineMockStore struct {
	objects         map[string][]byte
	reverseListings bool
}

func (s *pipelineMockStore) Bucket() string { return "frames-bucket" }

func (s *pipelineMockStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if s.reverseListings {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	}
	result := make([]storage.ObjectInfo, 0, len(keys))
	for _, k := range keys {
		result = append(result, storage.ObjectInfo{Key: k, Size: int64(len(s.objects[k]))})
	}
	return result, nil
}

func (s *pipelineMockStore) PutFile(ctx context.Context, key, localPath, contentType string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *pipelineMockStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (s *pipelineMockStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type pipelineMockDetector struct {
	labels map[string][]frame.Label
}

func (d *pipelineMockDetector) DetectLabels(ctx context.Context, req labeling.Request) ([]frame.Label, error) {
	return d.labels[req.Key], nil
}

type pipelineVerifier struct{ missing bool }

func (v *pipelineVerifier) VerifyInstalled(ctx context.Context) error {
	if v.missing {
		return errors.New("executable file not found in $PATH")
	}
	return nil
}

func InitializePipelineScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedPipelineContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "pipeline-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.tmpDir = filepath.Join(tempDir, "frames")
		testCtx.outputDir = filepath.Join(tempDir, "output")
		testCtx.grabber = &pipelineMockGrabber{}
		testCtx.store = &pipelineMockStore{objects: make(map[string][]byte)}
		testCtx.detector = &pipelineMockDetector{labels: make(map[string][]frame.Label)}
		testCtx.flags = cmd.RunFlags{
			ExtractPeriod:   pipeline.DefaultExtractPeriod,
			CredentialsPath: filepath.Join(tempDir, "credentials.yml"),
			TmpDir:          testCtx.tmpDir,
			OutputDir:       testCtx.outputDir,
		}
		testCtx.output = &bytes.Buffer{}
		testCtx.result = nil
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a video that yields frames before (\d+) seconds$`, testCtx.aVideoThatYieldsFramesBefore)
	ctx.Step(`^valid credentials$`, testCtx.validCredentials)
	ctx.Step(`^the bucket contains "([^"]*)"$`, testCtx.theBucketContains)
	ctx.Step(`^the bucket lists objects in reverse order$`, testCtx.theBucketListsObjectsInReverseOrder)
	ctx.Step(`^the local frame directory contains "([^"]*)"$`, testCtx.theLocalFrameDirectoryContains)
	ctx.Step(`^the detector labels "([^"]*)" as "([^"]*)" at ([\d.]+)$`, testCtx.theDetectorLabelsAs)
	ctx.Step(`^I run the pipeline with "([^"]*)"$`, testCtx.iRunThePipelineWith)
	ctx.Step(`^I run the pipeline without ffmpeg installed$`, testCtx.iRunThePipelineWithoutFFmpeg)
	ctx.Step(`^(\d+) frames should be extracted$`, testCtx.framesShouldBeExtracted)
	ctx.Step(`^the bucket should contain exactly "([^"]*)"$`, testCtx.theBucketShouldContainExactly)
	ctx.Step(`^frame "([^"]*)" should be at (\d+) seconds with summary "([^"]*)"$`, testCtx.frameShouldBeAtWithSummary)
	ctx.Step(`^frame "([^"]*)" should be at (\d+) seconds$`, testCtx.frameShouldBeAt)
	ctx.Step(`^the report should have (\d+) entries$`, testCtx.theReportShouldHaveEntries)
	ctx.Step(`^no report should be generated$`, testCtx.noReportShouldBeGenerated)
	ctx.Step(`^the run should fail with usage message "([^"]*)"$`, testCtx.theRunShouldFailWithUsageMessage)
}

func (p *pipelineContext) aVideoThatYieldsFramesBefore(seconds int) error {
	p.grabber.lastOffset = seconds
	return nil
}

func (p *pipelineContext) validCredentials() error {
	content := "bucket_name: frames-bucket\nregion: us-west-2\naccess_key_id: AKIA\nsecret_access_key: s\n"
	return os.WriteFile(p.flags.CredentialsPath, []byte(content), 0600)
}

func (p *pipelineContext) theBucketContains(list string) error {
	for _, key := range splitList(list) {
		p.store.objects[key] = []byte("stale")
	}
	return nil
}

func (p *pipelineContext) theBucketListsObjectsInReverseOrder() error {
	p.store.reverseListings = true
	return nil
}

func (p *pipelineContext) theLocalFrameDirectoryContains(list string) error {
	if err := os.MkdirAll(p.tmpDir, 0755); err != nil {
		return err
	}
	for _, name := range splitList(list) {
		if err := os.WriteFile(filepath.Join(p.tmpDir, name), []byte("local "+name), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipelineContext) theDetectorLabelsAs(key, name string, confidence float64) error {
	p.detector.labels[key] = append(p.detector.labels[key], frame.Label{
		Name:              name,
		ConfidencePercent: frame.TruncatePercent(confidence),
	})
	return nil
}

func (p *pipelineContext) iRunThePipelineWith(args string) error {
	return p.run(args, &pipelineVerifier{})
}

func (p *pipelineContext) iRunThePipelineWithoutFFmpeg() error {
	return p.run("talk.mp4", &pipelineVerifier{missing: true})
}

func (p *pipelineContext) run(args string, verifier cmd.Verifier) error {
	var positional []string
	for _, arg := range strings.Fields(args) {
		switch {
		case arg == "--no-frame-extract":
			p.flags.NoFrameExtract = true
		case arg == "--no-upload":
			p.flags.NoUpload = true
		case arg == "--no-recognize":
			p.flags.NoRecognize = true
		case arg == "--no-html":
			p.flags.NoHTML = true
		case arg == "--sort-by-key":
			p.flags.SortByKey = true
		case strings.HasPrefix(arg, "--extract-period="):
			period, err := strconv.Atoi(strings.TrimPrefix(arg, "--extract-period="))
			if err != nil {
				return err
			}
			p.flags.ExtractPeriod = period
		default:
			positional = append(positional, filepath.Join(p.tempDir, arg))
		}
	}

	// every positional video exists for these scenarios
	for _, path := range positional {
		if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
			return err
		}
	}

	opts, _, err := cmd.PrepareRun(context.Background(), positional, p.flags, verifier, &fileChecker{})
	if err != nil {
		p.err = err
		return nil
	}

	deps := cmd.PipelineDependencies{
		Grabber:   p.grabber,
		Store:     p.store,
		Detector:  p.detector,
		OutputDir: p.outputDir,
	}
	p.result, p.err = cmd.RunPipelineWithDependencies(context.Background(), deps, opts, p.output, nil)
	return nil
}

// fileChecker answers from the real filesystem
type fileChecker struct{}

func (fileChecker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (fileChecker) Readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func (p *pipelineContext) requireSuccess() error {
	if p.err != nil {
		return fmt.Errorf("pipeline failed: %w", p.err)
	}
	return nil
}

func (p *pipelineContext) framesShouldBeExtracted(count int) error {
	if err := p.requireSuccess(); err != nil {
		return err
	}
	if p.result.FrameCount != count {
		return fmt.Errorf("expected %d frames, got %d", count, p.result.FrameCount)
	}
	for i := 0; i < count; i++ {
		if _, err := os.Stat(frame.FramePath(p.tmpDir, i)); err != nil {
			return fmt.Errorf("frame %d missing: %w", i, err)
		}
	}
	return nil
}

func (p *pipelineContext) theBucketShouldContainExactly(list string) error {
	if err := p.requireSuccess(); err != nil {
		return err
	}
	want := splitList(list)
	var got []string
	for k := range p.store.objects {
		got = append(got, k)
	}
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("bucket contains %v, want %v", got, want)
	}
	for _, key := range want {
		local, err := os.ReadFile(filepath.Join(p.tmpDir, key))
		if err != nil {
			return err
		}
		if !bytes.Equal(local, p.store.objects[key]) {
			return fmt.Errorf("remote %s does not match local file", key)
		}
	}
	return nil
}

func (p *pipelineContext) findRecord(filename string) (*frame.Record, error) {
	if err := p.requireSuccess(); err != nil {
		return nil, err
	}
	for i := range p.result.Records {
		if p.result.Records[i].Filename == filename {
			return &p.result.Records[i], nil
		}
	}
	return nil, fmt.Errorf("no record for %s in %+v", filename, p.result.Records)
}

func (p *pipelineContext) frameShouldBeAtWithSummary(filename string, seconds int, summary string) error {
	rec, err := p.findRecord(filename)
	if err != nil {
		return err
	}
	if rec.OffsetSeconds != seconds {
		return fmt.Errorf("%s at %d seconds, want %d", filename, rec.OffsetSeconds, seconds)
	}
	if rec.LabelSummary != summary {
		return fmt.Errorf("%s summary %q, want %q", filename, rec.LabelSummary, summary)
	}
	return nil
}

func (p *pipelineContext) frameShouldBeAt(filename string, seconds int) error {
	rec, err := p.findRecord(filename)
	if err != nil {
		return err
	}
	if rec.OffsetSeconds != seconds {
		return fmt.Errorf("%s at %d seconds, want %d", filename, rec.OffsetSeconds, seconds)
	}
	return nil
}

func (p *pipelineContext) theReportShouldHaveEntries(count int) error {
	if err := p.requireSuccess(); err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(p.outputDir, "index.json"))
	if err != nil {
		return fmt.Errorf("index.json not written: %w", err)
	}
	var entries []map[string]interface{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("index.json is not valid JSON: %w", err)
	}
	if len(entries) != count {
		return fmt.Errorf("expected %d entries, got %d", count, len(entries))
	}

	html, err := os.ReadFile(filepath.Join(p.outputDir, "index.html"))
	if err != nil {
		return fmt.Errorf("index.html not written: %w", err)
	}
	if rows := strings.Count(string(html), "<tr"); rows != count {
		return fmt.Errorf("expected %d table rows, got %d", count, rows)
	}
	return nil
}

func (p *pipelineContext) noReportShouldBeGenerated() error {
	if err := p.requireSuccess(); err != nil {
		return err
	}
	if p.result.Report != nil {
		return fmt.Errorf("expected no report, got %+v", p.result.Report)
	}
	if _, err := os.Stat(p.outputDir); !os.IsNotExist(err) {
		return fmt.Errorf("output directory should not exist")
	}
	return nil
}

func (p *pipelineContext) theRunShouldFailWithUsageMessage(message string) error {
	var usageErr *cmd.UsageError
	if !errors.As(p.err, &usageErr) {
		return fmt.Errorf("expected usage error, got %v", p.err)
	}
	if !strings.Contains(usageErr.Message, message) {
		return fmt.Errorf("usage message %q does not contain %q", usageErr.Message, message)
	}
	return nil
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

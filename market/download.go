package market

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// checksumHeader is the optional digest header some market mirrors attach
// to file responses.
const checksumHeader = "X-Checksum-Sha256"

// defaultDownloadConcurrency bounds parallel file fetches in DownloadAll.
const defaultDownloadConcurrency = 4

// DownloadInfo describes the file behind a Download stream. ContentLength
// is -1 and Checksum empty when the server does not declare them.
type DownloadInfo struct {
	AppID         int64
	Name          string
	Version       float64
	SourceURL     string
	ContentLength int64
	Checksum      string
}

// Download opens a stream of the publication's main file. version selects
// a release; pass 0 for the current one. The market keeps only the current
// release online, so any other version is a NotFoundError. The caller owns
// the returned reader and must Close it.
func (c *Client) Download(ctx context.Context, appID int64, version float64) (io.ReadCloser, *DownloadInfo, error) {
	detail, err := c.GetApp(ctx, appID)
	if err != nil {
		return nil, nil, err
	}
	if version > 0 && version != detail.Version {
		return nil, nil, &NotFoundError{
			Resource: fmt.Sprintf("version %g of app %d (current release is %g)", version, appID, detail.Version),
		}
	}

	resp, err := c.fetchFile(ctx, detail.SourceURL)
	if err != nil {
		return nil, nil, err
	}

	info := &DownloadInfo{
		AppID:         detail.ID,
		Name:          detail.Name,
		Version:       detail.Version,
		SourceURL:     detail.SourceURL,
		ContentLength: resp.ContentLength,
		Checksum:      resp.Header.Get(checksumHeader),
	}
	return resp.Body, info, nil
}

// fetchFile streams one file from its hosting URL. Publication files live
// on arbitrary hosts, so the market token is never sent.
func (c *Client) fetchFile(ctx context.Context, fileURL string) (*http.Response, error) {
	if _, err := url.ParseRequestURI(fileURL); err != nil {
		return nil, &ConfigurationError{Reason: "invalid file URL " + strconv.Quote(fileURL)}
	}

	resp, err := c.doStream(ctx, request{
		method:    http.MethodGet,
		url:       fileURL,
		retryable: true,
		stampAuth: false,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, checkStatus(&rawResponse{
			status: resp.StatusCode,
			header: resp.Header,
			body:   body,
		})
	}
	return resp, nil
}

// ChecksumReader wraps a download stream, hashing bytes as they pass so the
// caller can verify the file without buffering it.
type ChecksumReader struct {
	r    io.Reader
	hash hash.Hash
	read int64
}

// NewChecksumReader returns a reader that hashes everything read from r.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{r: r, hash: sha256.New()}
}

func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
		cr.read += int64(n)
	}
	return n, err
}

// BytesRead returns how many bytes have passed through so far.
func (cr *ChecksumReader) BytesRead() int64 {
	return cr.read
}

// Sum returns the hex SHA-256 of everything read so far.
func (cr *ChecksumReader) Sum() string {
	return hex.EncodeToString(cr.hash.Sum(nil))
}

// Verify checks the consumed stream against what the server declared.
// Undeclared length or checksum verifies trivially.
func (cr *ChecksumReader) Verify(info *DownloadInfo) error {
	if info.ContentLength >= 0 && cr.read != info.ContentLength {
		return &SchemaError{
			Reason: fmt.Sprintf("truncated download: got %d bytes, server declared %d", cr.read, info.ContentLength),
		}
	}
	if info.Checksum != "" && !strings.EqualFold(cr.Sum(), info.Checksum) {
		return &SchemaError{Reason: "checksum mismatch on downloaded file"}
	}
	return nil
}

// MarkDownloaded reports a completed download to the market's counters,
// attributed to the authenticated account. Purely telemetry; callers
// usually ignore a failure.
func (c *Client) MarkDownloaded(ctx context.Context, appID int64) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}
	if appID <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("app id must be positive, got %d", appID)}
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("file_id", strconv.FormatInt(appID, 10))

	_, err = c.callScript(ctx, "download", form, false)
	return err
}

// appBundleMainRe matches a bundle-relative main file path such as
// ".app/Main.lua", whose parent directory is the install root.
var appBundleMainRe = regexp.MustCompile(`^\.[awlp]+/+Main\.lua`)

// fsRemoveSlashes collapses repeated slashes and strips the leading one,
// the way MineOS canonicalizes install paths.
func fsRemoveSlashes(path string) string {
	parts := strings.Split(path, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}

// installRoot strips the main file from a bundle path so resources resolve
// relative to the bundle directory.
func installRoot(mainFilePath string) string {
	if !appBundleMainRe.MatchString(mainFilePath) {
		return mainFilePath
	}
	if strings.HasSuffix(mainFilePath, "/") {
		return mainFilePath
	}
	if i := strings.LastIndex(mainFilePath, "/"); i >= 0 {
		return mainFilePath[:i]
	}
	return mainFilePath
}

// categoryDirs maps a publication category to its MineOS install prefix.
var categoryDirs = map[Category]string{
	CategoryApplications: "Applications/",
	CategoryLibraries:    "Libraries/",
	CategoryScripts:      "",
	CategoryWallpapers:   "Wallpapers/",
}

// dependencyPath resolves where a dependency installs: publications under
// their category prefix, resources relative to the main file's bundle
// unless their path is absolute.
func dependencyPath(mainFilePath string, dep Dependency) string {
	var path string
	switch {
	case dep.IsPublication():
		path = categoryDirs[dep.Category] + dep.Path
	case strings.HasPrefix(dep.Path, "/"):
		path = dep.Path
	default:
		path = installRoot(mainFilePath) + "/" + dep.Path
	}
	return fsRemoveSlashes(path)
}

// fileJob is one file DownloadAll must fetch.
type fileJob struct {
	sourceURL string
	relPath   string
}

// planDownload lists every file a publication install needs, main file
// first, dependencies in the order the market declares them.
func planDownload(detail *AppDetail) ([]fileJob, error) {
	mainFilePath := detail.Name
	if mainFilePath == "" && (detail.Category == CategoryApplications || detail.Category == CategoryWallpapers) {
		mainFilePath = "Main.lua"
	}

	jobs := []fileJob{{
		sourceURL: detail.SourceURL,
		relPath:   fsRemoveSlashes(mainFilePath + "/" + detail.Path),
	}}

	for _, depID := range detail.AllDependencies {
		dep, ok := detail.DependencyData[depID]
		if !ok {
			return nil, &SchemaError{
				Field:  "dependencies_data",
				Reason: fmt.Sprintf("dependency %d referenced but not described", depID),
			}
		}
		jobs = append(jobs, fileJob{
			sourceURL: dep.SourceURL,
			relPath:   dependencyPath(mainFilePath, dep),
		})
	}
	return jobs, nil
}

// DownloadAll fetches a publication and every dependency into destDir,
// laid out the way MineOS installs them, with at most concurrency files in
// flight (0 takes the default). Returns the written paths in install order.
func (c *Client) DownloadAll(ctx context.Context, appID int64, destDir string, concurrency int) ([]string, error) {
	if destDir == "" {
		return nil, &ConfigurationError{Reason: "destination directory is required"}
	}
	if concurrency < 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("concurrency must not be negative, got %d", concurrency)}
	}
	if concurrency == 0 {
		concurrency = defaultDownloadConcurrency
	}

	detail, err := c.GetApp(ctx, appID)
	if err != nil {
		return nil, err
	}

	jobs, err := planDownload(detail)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	written := make([]string, len(jobs))
	for i, job := range jobs {
		target := filepath.Join(destDir, filepath.FromSlash(job.relPath))
		written[i] = target

		g.Go(func() error {
			if err := c.saveFile(gctx, job.sourceURL, target); err != nil {
				return fmt.Errorf("downloading %s: %w", job.relPath, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int64("app_id", appID).
		Int("files", len(written)).
		Str("dest", destDir).
		Msg("publication downloaded")
	return written, nil
}

// saveFile streams one file to disk, creating parent directories.
func (c *Client) saveFile(ctx context.Context, sourceURL, target string) error {
	resp, err := c.fetchFile(ctx, sourceURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(target)
		return c.classifyNetError(sourceURL, err)
	}
	return out.Close()
}

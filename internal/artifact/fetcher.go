// Package artifact downloads classifier artifacts and installs them next to
// the binary's data directory.
package artifact

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/stresslens/internal/stress"
)

var (
	ErrChecksum   = errors.New("checksum verification failed")
	ErrNoChecksum = errors.New("no checksum published for artifact")
)

// maxArtifactSize bounds a download. The embedded model is a few KB; a
// 100-tree forest is a few MB.
const maxArtifactSize = 64 << 20

// Fetcher downloads artifacts published alongside a checksums.txt manifest
// in `sha256  filename` format.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher returns a Fetcher. A nil client gets a 60s-timeout default and
// a nil logger discards output.
func NewFetcher(client *http.Client, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, logger: logger}
}

// PullInput describes one artifact download.
type PullInput struct {
	URL string
	// ChecksumsURL defaults to checksums.txt in the artifact's directory.
	ChecksumsURL string
	// Insecure skips checksum verification. The artifact is still validated
	// as a forest before it is installed.
	Insecure bool
	Dest     string
}

// Progress reports a pull stage.
type Progress struct {
	Stage   string
	Message string
}

// PullResult describes an installed artifact.
type PullResult struct {
	Path    string
	SHA256  string
	Version string
	Trees   int
}

// Pull downloads, verifies, validates and atomically installs an artifact.
// Dest is never touched unless every check passes.
func (f *Fetcher) Pull(ctx context.Context, in PullInput, progress func(Progress)) (*PullResult, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	if in.Dest == "" {
		return nil, fmt.Errorf("destination path is required")
	}
	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid artifact URL %q", in.URL)
	}
	asset := path.Base(u.Path)

	progress(Progress{Stage: "download", Message: fmt.Sprintf("Downloading %s...", asset)})
	data, err := f.download(ctx, in.URL)
	if err != nil {
		return nil, fmt.Errorf("download artifact: %w", err)
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	if in.Insecure {
		f.logger.Warn("skipping artifact checksum verification", zap.String("url", in.URL))
	} else {
		progress(Progress{Stage: "verify", Message: "Verifying checksum..."})
		checksumsURL := in.ChecksumsURL
		if checksumsURL == "" {
			cu := *u
			cu.Path = path.Join(path.Dir(u.Path), "checksums.txt")
			cu.RawQuery = ""
			checksumsURL = cu.String()
		}
		manifest, err := f.download(ctx, checksumsURL)
		if err != nil {
			return nil, fmt.Errorf("download checksums: %w", err)
		}
		expected, ok := parseChecksums(manifest)[asset]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoChecksum, asset)
		}
		if err := verifyChecksum(data, expected); err != nil {
			return nil, err
		}
	}

	if strings.HasSuffix(asset, ".gz") {
		progress(Progress{Stage: "extract", Message: "Decompressing artifact..."})
		if data, err = gunzip(data); err != nil {
			return nil, fmt.Errorf("decompress artifact: %w", err)
		}
	}

	progress(Progress{Stage: "validate", Message: "Validating forest..."})
	fr, err := stress.LoadForest(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("validate artifact: %w", err)
	}

	progress(Progress{Stage: "install", Message: "Installing artifact..."})
	if err := install(data, in.Dest); err != nil {
		return nil, fmt.Errorf("install artifact: %w", err)
	}

	f.logger.Info("installed classifier artifact",
		zap.String("path", in.Dest),
		zap.String("version", fr.Version()),
		zap.Int("trees", fr.Size()),
		zap.String("sha256", digest))

	progress(Progress{Stage: "done", Message: fmt.Sprintf("Installed %s", in.Dest)})
	return &PullResult{Path: in.Dest, SHA256: digest, Version: fr.Version(), Trees: fr.Size()}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxArtifactSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", url, maxArtifactSize)
	}
	return data, nil
}

func parseChecksums(data []byte) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		// sha256sum marks binary mode with a leading '*'.
		result[strings.TrimPrefix(parts[1], "*")] = strings.ToLower(parts[0])
	}
	return result
}

func verifyChecksum(data []byte, expectedHex string) error {
	h := sha256.Sum256(data)
	actual := hex.EncodeToString(h[:])
	if actual != expectedHex {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksum, expectedHex, actual)
	}
	return nil
}

func gunzip(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gz.Close() }()
	out, err := io.ReadAll(io.LimitReader(gz, maxArtifactSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxArtifactSize {
		return nil, fmt.Errorf("decompressed artifact exceeds %d bytes", maxArtifactSize)
	}
	return out, nil
}

// install writes data beside dest and renames it into place, re-reading the
// temp file first so a short write never replaces a good artifact.
func install(data []byte, dest string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".stresslens-artifact-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("re-read temp file: %w", err)
	}
	if !bytes.Equal(written, data) {
		return fmt.Errorf("%w: temp file changed after write", ErrChecksum)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	return os.Rename(tmpPath, dest)
}

// DefaultPath resolves where pulled artifacts are installed:
// $XDG_DATA_HOME/stresslens/forest.json, or ~/.local/share/stresslens/forest.json.
func DefaultPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "stresslens", "forest.json"), nil
}

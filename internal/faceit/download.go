package faceit

import (
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Download fetches a demo URL into dir as <name>.dem, decompressing gzip,
// zstd or bzip2 payloads on the fly. It returns the written path and the
// number of decompressed bytes.
func Download(ctx context.Context, client *http.Client, demoURL, dir, name string) (string, int64, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, demoURL, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	src, closeSrc, err := decompressor(demoURL, resp)
	if err != nil {
		return "", 0, err
	}
	defer closeSrc()

	outPath := filepath.Join(dir, name+".dem")
	f, err := os.Create(outPath)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	n, err := io.Copy(f, src)
	if err != nil {
		os.Remove(outPath)
		return "", 0, fmt.Errorf("write: %w", err)
	}
	return outPath, n, nil
}

func decompressor(demoURL string, resp *http.Response) (io.Reader, func(), error) {
	path := demoURL
	if u, err := resp.Request.URL.Parse(demoURL); err == nil {
		path = u.Path
	}
	switch {
	case strings.HasSuffix(path, ".bz2"):
		return bzip2.NewReader(resp.Body), func() {}, nil
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return dec, dec.Close, nil
	case strings.HasSuffix(path, ".gz") || resp.Header.Get("Content-Encoding") == "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	}
	return resp.Body, func() {}, nil
}

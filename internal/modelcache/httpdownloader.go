package modelcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gmickel/gno/internal/gnoerr"
)

// HuggingFaceBaseURL is the resolve endpoint prefix for hf: URIs.
const HuggingFaceBaseURL = "https://huggingface.co"

// HTTPDownloader fetches hf: model files over plain HTTP, following the
// teacher's ModelManager.downloadModel: stream to a ".tmp" sibling,
// fsync, atomic rename, reporting progress as bytes arrive.
type HTTPDownloader struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPDownloader builds a downloader with a generous timeout; model
// files can run into the gigabytes.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		Client:    &http.Client{Timeout: 30 * time.Minute},
		UserAgent: "gno/1.0",
	}
}

// Download implements Downloader for hf: URIs only; other schemes never
// reach a Downloader (spec.md section 4.4: file:// and http(s):// are
// resolved without one).
func (d *HTTPDownloader) Download(ctx context.Context, uri URI, destPath string, onProgress ProgressFunc) *gnoerr.Error {
	if uri.Scheme != SchemeHuggingFace {
		return gnoerr.New(gnoerr.CodeInvalidURI, "HTTPDownloader only resolves hf: URIs", nil)
	}
	url, gerr := resolveHuggingFaceURL(uri)
	if gerr != nil {
		return gerr
	}

	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, err)
	}
	req.Header.Set("User-Agent", d.UserAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return gnoerr.New(gnoerr.CodeModelDownloadFailed, err.Error(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return gnoerr.New(gnoerr.CodeModelDownloadFailed, fmt.Sprintf("download failed with status %s", resp.Status), nil)
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, err)
	}
	defer file.Close()

	total := resp.ContentLength
	if total < 0 {
		total = 0 // unknown length; ProgressFunc reports that as 0
	}
	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return gnoerr.New(gnoerr.CodeTimeout, "download canceled: "+ctx.Err().Error(), ctx.Err())
		default:
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, writeErr)
			}
			downloaded += int64(n)
			if onProgress != nil {
				onProgress(downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, readErr)
		}
	}

	if err := file.Sync(); err != nil {
		return gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, err)
	}
	if err := file.Close(); err != nil {
		return gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return gnoerr.Wrap(gnoerr.CodeModelDownloadFailed, err)
	}
	return nil
}

// resolveHuggingFaceURL builds the "resolve/main" download URL for
// either the explicit-file or quant-shorthand hf: forms.
func resolveHuggingFaceURL(uri URI) (string, *gnoerr.Error) {
	file := uri.File
	if file == "" {
		if uri.Quant == "" {
			return "", gnoerr.New(gnoerr.CodeInvalidURI, "hf: reference has neither file nor quant", nil)
		}
		file = uri.Repo + "." + uri.Quant + ".gguf"
	}
	return fmt.Sprintf("%s/%s/%s/resolve/main/%s", HuggingFaceBaseURL, uri.Org, uri.Repo, file), nil
}

// Package publisher writes generation artifacts to disk and optionally uploads the image.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"auto_sketch_enhancer/config"
	"auto_sketch_enhancer/surface"
)

// Params describes one set of artifacts to write.
type Params struct {
	// Name is the file stem; defaults to "sketch-<unix>".
	Name   string
	Report Report
	HTML   bool
	PDF    bool
}

// Artifacts lists what Publish produced. Empty fields were not requested.
type Artifacts struct {
	ImagePath string `json:"image_path"`
	HTMLPath  string `json:"html_path,omitempty"`
	PDFPath   string `json:"pdf_path,omitempty"`
	RemoteURL string `json:"remote_url,omitempty"`
}

// uploadResp is the upload endpoint's reply. Failures are signalled by a non-2xx status;
// a 2xx reply must carry the public url.
type uploadResp struct {
	URL string `json:"url"`
}

// Publisher writes results into an output directory.
type Publisher struct {
	dir       string
	uploadURL string
	client    *http.Client
	verbose   bool
	logger    *log.Logger
}

func New(cfg config.Config, client *http.Client, verbose bool, logger *log.Logger) (*Publisher, error) {
	if cfg.OutputDir == "" {
		return nil, errors.New("config must include output_dir")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{
		dir:       cfg.OutputDir,
		uploadURL: cfg.UploadURL,
		client:    client,
		verbose:   verbose,
		logger:    logger,
	}, nil
}

func (p *Publisher) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Publish writes the enhanced image and the requested report formats.
func (p *Publisher) Publish(ctx context.Context, params Params) (Artifacts, error) {
	img := params.Report.Result
	if len(img.Data) == 0 {
		return Artifacts{}, errors.New("report has no result image")
	}
	name := unsafeName.ReplaceAllString(params.Name, "_")
	if name == "" || name == "_" {
		name = fmt.Sprintf("sketch-%d", time.Now().Unix())
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Artifacts{}, err
	}

	var out Artifacts
	out.ImagePath = filepath.Join(p.dir, name+"."+img.Extension())
	if err := os.WriteFile(out.ImagePath, img.Data, 0o644); err != nil {
		return Artifacts{}, err
	}
	p.infof("Wrote image %s (%d bytes)", out.ImagePath, len(img.Data))

	if params.HTML {
		html, err := RenderHTML(params.Report)
		if err != nil {
			return out, err
		}
		out.HTMLPath = filepath.Join(p.dir, name+".html")
		if err := os.WriteFile(out.HTMLPath, []byte(html), 0o644); err != nil {
			return out, err
		}
		p.infof("Wrote report %s", out.HTMLPath)
	}

	if params.PDF {
		out.PDFPath = filepath.Join(p.dir, name+".pdf")
		if err := writePDFFile(out.PDFPath, params.Report); err != nil {
			return out, err
		}
		p.infof("Wrote sheet %s", out.PDFPath)
	}

	if p.uploadURL != "" {
		url, err := uploadImage(ctx, p.client, p.uploadURL, filepath.Base(out.ImagePath), img)
		if err != nil {
			return out, err
		}
		out.RemoteURL = url
		p.infof("Uploaded image %s -> %s", out.ImagePath, url)
	}
	return out, nil
}

func writePDFFile(path string, r Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WritePDF(f, r)
}

func uploadImage(ctx context.Context, client *http.Client, endpoint, filename string, img surface.Sketch) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, bytes.NewReader(img.Data)); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload image: http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var data uploadResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	if data.URL == "" {
		return "", errors.New("upload image: response has no url")
	}
	return data.URL, nil
}

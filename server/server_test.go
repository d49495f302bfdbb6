package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"auto_sketch_enhancer/composer"
	"auto_sketch_enhancer/config"
	"auto_sketch_enhancer/generator"
	"auto_sketch_enhancer/surface"
)

type fixedAnalyzer string

func (f fixedAnalyzer) Analyze(context.Context, surface.Sketch) string { return string(f) }

func newTestServer(t *testing.T) (*httptest.Server, *bytes.Buffer) {
	t.Helper()
	c, err := composer.New(surface.NewGGBackend(), composer.WithSize(128), composer.WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	orch, err := generator.New(fixedAnalyzer("A house with a tree and the sun"), c)
	if err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	srv, err := New(orch, config.Default(), true, log.New(&logs, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, &logs
}

func sketchDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 40, 30))); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func postGenerate(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url+"/api/generate", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestGenerateAndFetch(t *testing.T) {
	ts, logs := newTestServer(t)

	resp := postGenerate(t, ts.URL, generateReq{Image: sketchDataURI(t), Prompt: "p", Styles: []string{"s"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var gen generateResp
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		t.Fatal(err)
	}
	if gen.ID == "" || gen.Fallback || len(gen.Images) != 1 || gen.Description == "" {
		t.Fatalf("gen = %+v", gen)
	}
	if strings.HasPrefix(gen.Images[0], "data:") {
		t.Fatal("image should not carry a data URI prefix")
	}

	got, err := http.Get(ts.URL + "/api/generations/" + gen.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer got.Body.Close()
	var rec generationResp
	if err := json.NewDecoder(got.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != gen.ID || rec.Prompt != "p" || rec.Result.Images[0] != gen.Images[0] {
		t.Fatalf("rec = %+v", rec)
	}
	if n := len(rec.History); n == 0 || rec.History[n-1].Stage != "done" {
		t.Fatalf("history = %+v", rec.History)
	}
	if !strings.Contains(logs.String(), "[http] POST /api/generate 200") {
		t.Fatalf("logs = %s", logs.String())
	}
}

func TestReportAndPDF(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postGenerate(t, ts.URL, generateReq{Image: sketchDataURI(t)})
	var gen generateResp
	json.NewDecoder(resp.Body).Decode(&gen)
	resp.Body.Close()

	report, err := http.Get(ts.URL + "/api/generations/" + gen.ID + "/report")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(report.Body)
	report.Body.Close()
	if report.StatusCode != http.StatusOK || !strings.Contains(string(body), "Elements: trees, sun, house") {
		t.Fatalf("report %d: %.200s", report.StatusCode, body)
	}

	pdfResp, err := http.Get(ts.URL + "/api/generations/" + gen.ID + "/pdf")
	if err != nil {
		t.Fatal(err)
	}
	pdfBody, _ := io.ReadAll(pdfResp.Body)
	pdfResp.Body.Close()
	if pdfResp.StatusCode != http.StatusOK || pdfResp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status = %d type = %s", pdfResp.StatusCode, pdfResp.Header.Get("Content-Type"))
	}
	if !bytes.HasPrefix(pdfBody, []byte("%PDF-")) {
		t.Fatal("pdf body is not a pdf")
	}
}

func TestGenerateRejectsEmptyImage(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, img := range []string{"", "  ", "data:image/png;base64,"} {
		resp := postGenerate(t, ts.URL, generateReq{Image: img})
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("image %q: status = %d", img, resp.StatusCode)
		}
	}
}

func TestGenerateBadBase64FallsBack(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postGenerate(t, ts.URL, generateReq{Image: "data:image/png;base64,@@@"})
	defer resp.Body.Close()
	var gen generateResp
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		t.Fatal(err)
	}
	if !gen.Fallback || gen.Images[0] != "@@@" || gen.Error != "" {
		t.Fatalf("gen = %+v", gen)
	}
}

func TestMethodAndNotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/generate")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/generate = %d", resp.StatusCode)
	}
	resp, err = http.Get(ts.URL + "/api/generations/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown id = %d", resp.StatusCode)
	}
	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	s := newStore(2)
	for _, id := range []string{"a", "b", "c"} {
		s.set(id, generator.NewSession(id, generator.Input{}, nil))
	}
	if _, ok := s.get("a"); ok {
		t.Fatal("oldest generation should be evicted")
	}
	if _, ok := s.get("c"); !ok {
		t.Fatal("newest generation missing")
	}
}

func TestNewRequiresOrchestrator(t *testing.T) {
	if _, err := New(nil, config.Default(), false, nil); err == nil {
		t.Fatal("expected error")
	}
}

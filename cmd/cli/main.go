package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"paperhub/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type listResponse struct {
	Total int                  `json:"total"`
	Items []models.Publication `json:"items"`
}

func main() {
	global := flag.NewFlagSet("paperhub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	client := &http.Client{Timeout: 30 * time.Second}

	switch args[0] {
	case "create":
		handleCreate(ctx, client, *baseURL, args[1:])
	case "get":
		handleGet(ctx, client, *baseURL, args[1:])
	case "list":
		handleList(ctx, client, *baseURL, args[1:])
	case "delete":
		handleDelete(ctx, client, *baseURL, args[1:])
	case "years":
		handleYears(ctx, client, *baseURL)
	case "volumes":
		handleVolumes(ctx, client, *baseURL, args[1:])
	case "download":
		handleDownload(ctx, client, *baseURL, args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`paperhub CLI

Usage:
  paperhub [-api URL] create -pdf FILE -year N -volume V -issue N -content TEXT [-title T] [-author A] [-doi D] [-special]
  paperhub [-api URL] get ID
  paperhub [-api URL] list [-year N] [-volume V] [-issue N] [-doi D] [-special]
  paperhub [-api URL] delete ID
  paperhub [-api URL] years
  paperhub [-api URL] volumes -year N
  paperhub [-api URL] download ID [-out FILE]

create prefills -title and -author from the PDF's document info when omitted.`)
}

func handleCreate(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	pdfPath := fs.String("pdf", "", "PDF file to upload (required)")
	year := fs.Int("year", 0, "publication year (required)")
	volume := fs.String("volume", "", "volume (required)")
	issue := fs.Int("issue", 0, "issue number (required)")
	title := fs.String("title", "", "title (prefilled from PDF when omitted)")
	author := fs.String("author", "", "author (prefilled from PDF when omitted)")
	content := fs.String("content", "", "abstract/body text (required)")
	doi := fs.String("doi", "", "DOI")
	special := fs.Bool("special", false, "mark as special issue")
	_ = fs.Parse(args)

	if *pdfPath == "" {
		log.Fatal("create: -pdf is required")
	}

	data, err := os.ReadFile(*pdfPath)
	if err != nil {
		log.Fatalf("read pdf: %v", err)
	}

	if *title == "" || *author == "" {
		t, a := pdfDocumentInfo(*pdfPath)
		if *title == "" {
			*title = t
		}
		if *author == "" {
			*author = a
		}
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"year":    fmt.Sprintf("%d", *year),
		"volume":  *volume,
		"issue":   fmt.Sprintf("%d", *issue),
		"title":   *title,
		"author":  *author,
		"content": *content,
	}
	if *doi != "" {
		fields["doi"] = *doi
	}
	if *special {
		fields["isSpecialIssue"] = "true"
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			log.Fatalf("write field %s: %v", k, err)
		}
	}

	part, err := w.CreatePart(pdfPartHeader(filepath.Base(*pdfPath)))
	if err != nil {
		log.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		log.Fatalf("write pdf part: %v", err)
	}
	if err := w.Close(); err != nil {
		log.Fatalf("close multipart: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/publications", &body)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	doJSON(client, req)
}

// pdfPartHeader builds the "pdf" file part with an explicit content type;
// multipart.CreateFormFile would tag it application/octet-stream.
func pdfPartHeader(filename string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="pdf"; filename=%q`, filename))
	h.Set("Content-Type", "application/pdf")
	return h
}

// pdfDocumentInfo pulls Title/Author from the PDF's Info dictionary,
// best effort: a malformed PDF just yields empty strings.
func pdfDocumentInfo(path string) (title, author string) {
	defer func() {
		// the pdf package panics on some malformed files
		_ = recover()
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	info := r.Trailer().Key("Info")
	if t := info.Key("Title"); t.Kind() == pdf.String {
		title = strings.TrimSpace(t.RawString())
	}
	if a := info.Key("Author"); a.Kind() == pdf.String {
		author = strings.TrimSpace(a.RawString())
	}
	return title, author
}

func handleGet(ctx context.Context, client *http.Client, baseURL string, args []string) {
	if len(args) == 0 {
		log.Fatal("get: ID required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/publications/"+url.PathEscape(args[0]), nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	doJSON(client, req)
}

func handleList(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	year := fs.String("year", "", "filter by year")
	volume := fs.String("volume", "", "filter by volume")
	issue := fs.String("issue", "", "filter by issue")
	doi := fs.String("doi", "", "filter by DOI")
	special := fs.Bool("special", false, "only special issues")
	_ = fs.Parse(args)

	q := url.Values{}
	if *year != "" {
		q.Set("year", *year)
	}
	if *volume != "" {
		q.Set("volume", *volume)
	}
	if *issue != "" {
		q.Set("issue", *issue)
	}
	if *doi != "" {
		q.Set("doi", *doi)
	}

	path := "/publications"
	if *special {
		path = "/publications/special-issues"
	}
	u := baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		failWithBody(resp)
	}

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("decode response: %v", err)
	}

	fmt.Printf("total: %d\n", out.Total)
	for _, p := range out.Items {
		tag := ""
		if p.IsSpecialIssue {
			tag = " [special]"
		}
		fmt.Printf("%s  %d vol.%s(%d)%s  %s: %s\n",
			p.ID, p.Year, p.Volume, p.Issue, tag, p.Author, p.Title)
	}
}

func handleDelete(ctx context.Context, client *http.Client, baseURL string, args []string) {
	if len(args) == 0 {
		log.Fatal("delete: ID required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		baseURL+"/publications/"+url.PathEscape(args[0]), nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	doJSON(client, req)
}

func handleYears(ctx context.Context, client *http.Client, baseURL string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/publications/years", nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	doJSON(client, req)
}

func handleVolumes(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("volumes", flag.ExitOnError)
	year := fs.String("year", "", "year (required)")
	_ = fs.Parse(args)

	if *year == "" {
		log.Fatal("volumes: -year is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/publications/volumes?year="+url.QueryEscape(*year), nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	doJSON(client, req)
}

func handleDownload(ctx context.Context, client *http.Client, baseURL string, args []string) {
	if len(args) == 0 {
		log.Fatal("download: ID required")
	}
	id := args[0]

	fs := flag.NewFlagSet("download", flag.ExitOnError)
	out := fs.String("out", id+".pdf", "output file")
	_ = fs.Parse(args[1:])

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		baseURL+"/publications/"+url.PathEscape(id)+"/pdf/download", nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		failWithBody(resp)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}
	fmt.Printf("wrote %d bytes to %s\n", n, *out)
}

func doJSON(client *http.Client, req *http.Request) {
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		failWithBody(resp)
	}

	var obj any
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		log.Fatalf("decode response: %v", err)
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(b))
}

func failWithBody(resp *http.Response) {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	log.Fatalf("server returned %s: %s", resp.Status, strings.TrimSpace(string(b)))
}

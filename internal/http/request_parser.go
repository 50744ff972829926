package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

// MaxImportBytes bounds an uploaded import file.
const MaxImportBytes = 10 << 20

// EntryForm holds the fields of a manual entry.
type EntryForm struct {
	Desc   string
	Amount string
	Date   string
}

// RequestBodyParser reads a body once and exposes it as either JSON or
// form-encoded fields, so the entry endpoint serves htmx and scripts alike.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, 1<<20))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Entry extracts the manual entry fields. "description" is accepted as an
// alias of "desc".
func (p *RequestBodyParser) Entry() EntryForm {
	desc := p.Get("desc")
	if desc == "" {
		desc = p.Get("description")
	}
	return EntryForm{Desc: desc, Amount: p.Get("amount"), Date: p.Get("date")}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ImportUpload is a parsed import form.
type ImportUpload struct {
	Filename string
	Content  []byte
	Policy   core.ImportPolicy
}

var errNoFile = errors.New("no file uploaded")

// ParseImportUpload reads the multipart "file" field and the "policy" field.
func ParseImportUpload(w http.ResponseWriter, r *http.Request) (ImportUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes+1<<20)
	if err := r.ParseMultipartForm(MaxImportBytes); err != nil {
		return ImportUpload{}, fmt.Errorf("parse multipart form: %w", err)
	}

	policy, err := core.ParsePolicy(r.FormValue("policy"))
	if err != nil {
		return ImportUpload{}, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return ImportUpload{}, errNoFile
		}
		return ImportUpload{}, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, MaxImportBytes+1))
	if err != nil {
		return ImportUpload{}, fmt.Errorf("read upload: %w", err)
	}
	if len(content) > MaxImportBytes {
		return ImportUpload{}, fmt.Errorf("upload exceeds %d bytes", MaxImportBytes)
	}
	return ImportUpload{Filename: header.Filename, Content: content, Policy: policy}, nil
}

// transactionIDFromPath extracts {id} from an escaped
// /transactions/{id}/delete path (see url.URL.EscapedPath). Ids may hold
// any character, so the segment is unescaped only after splitting.
func transactionIDFromPath(escapedPath string) (string, bool) {
	rest, ok := strings.CutPrefix(escapedPath, "/transactions/")
	if !ok {
		return "", false
	}
	seg, ok := strings.CutSuffix(rest, "/delete")
	if !ok || seg == "" || strings.Contains(seg, "/") {
		return "", false
	}
	id, err := url.PathUnescape(seg)
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// RequireMethod returns a 405 response unless the request method is one of
// methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and line breaks.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

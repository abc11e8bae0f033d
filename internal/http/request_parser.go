package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// maxBodyBytes bounds request bodies read by RequestBodyParser.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads a JSON object or form-encoded body once and exposes
// its fields as sanitized strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it starts with '{' and as form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		p.err = dec.Decode(&p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(body))
	return p.err
}

// Get returns a field value from the parsed body, or "" when absent.
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

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseNewTransaction builds a transaction input from a request body with the
// fields type, amount, category, description and date. Type and amount are
// parsed here; the remaining checks happen in the store.
func ParseNewTransaction(p *RequestBodyParser) (core.NewTransaction, error) {
	t, err := core.ParseType(p.Get("type"))
	if err != nil {
		return core.NewTransaction{}, err
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.NewTransaction{}, err
	}
	return core.NewTransaction{
		Type:        t,
		Amount:      amount,
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Date:        p.Get("date"),
	}, nil
}

// parseOrder reads the order query value; anything but "asc" means newest first.
func parseOrder(r *http.Request) core.SortOrder {
	return core.ParseSortOrder(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("order"))))
}

package resources

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/tidwall/gjson"
)

// Record is one JSON object returned by the backend, kept as-is.
type Record struct {
	raw gjson.Result
}

// NewRecord wraps a raw JSON object.
func NewRecord(raw json.RawMessage) (Record, error) {
	if !gjson.ValidBytes(raw) {
		return Record{}, fmt.Errorf("%w: invalid JSON record", apperrors.ErrRequestFailed)
	}

	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return Record{}, fmt.Errorf("%w: expected a JSON object, got %s", apperrors.ErrRequestFailed, r.Type)
	}

	return Record{raw: r}, nil
}

// ID returns the record id as a string.
func (r Record) ID() string {
	return r.raw.Get("id").String()
}

// Value returns the display value of c.
func (r Record) Value(c Column) string {
	for _, path := range c.Paths {
		v := r.raw.Get(path)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}

		if s := v.String(); s != "" {
			return s
		}
	}

	return ""
}

// Raw returns the record's JSON.
func (r Record) Raw() json.RawMessage {
	return json.RawMessage(r.raw.Raw)
}

// Pretty returns the record as indented JSON with sorted keys.
func (r Record) Pretty() string {
	return r.raw.Get(`@pretty:{"sortKeys":true}`).Raw
}

// decoded returns the record as a generic Go value, for YAML output.
func (r Record) decoded() (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(r.raw.Raw), &v); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	return v, nil
}

// parseList accepts either a paginated {"results": [...]} envelope or a
// bare array.
func parseList(body json.RawMessage) ([]Record, error) {
	if len(body) == 0 {
		return nil, nil
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON list", apperrors.ErrRequestFailed)
	}

	list := gjson.ParseBytes(body)
	if list.IsObject() {
		list = list.Get("results")
	}

	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected a list of records", apperrors.ErrRequestFailed)
	}

	var records []Record

	for _, item := range list.Array() {
		if !item.IsObject() {
			continue
		}

		records = append(records, Record{raw: item})
	}

	return records, nil
}

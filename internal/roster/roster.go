package roster

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DocumentKey is the top-level key holding the employee list in the dataset file.
const DocumentKey = "employees"

var (
	// ErrDataUnavailable is returned when the dataset source does not exist or cannot be read.
	ErrDataUnavailable = errors.New("employee dataset not found")
	// ErrMalformedData is returned when the dataset cannot be decoded into employee records.
	ErrMalformedData = errors.New("malformed employee dataset")
)

var requiredFields = []string{"name", "skills", "experience_years", "availability"}

// Roster is the read-only list of employees loaded at startup.
// It is safe for concurrent readers; nothing mutates it after construction.
type Roster struct {
	items []EmployeeRecord
}

// New builds a roster from already decoded records.
func New(records []EmployeeRecord) *Roster {
	items := make([]EmployeeRecord, 0, len(records))
	for _, r := range records {
		items = append(items, r.clone())
	}
	return &Roster{items: items}
}

// Load reads and parses the dataset file at path.
func Load(path string) (*Roster, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: dataset path is not configured", ErrDataUnavailable)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDataUnavailable, path, err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a dataset document of the form {"employees": [...]}.
func Parse(data []byte) (*Roster, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding json: %v", ErrMalformedData, err)
	}

	raw, ok := doc[DocumentKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", ErrMalformedData, DocumentKey)
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a list", ErrMalformedData, DocumentKey)
	}

	records := make([]EmployeeRecord, 0, len(items))
	for idx, item := range items {
		record, err := decodeRecord(item)
		if err != nil {
			return nil, fmt.Errorf("%w: employee #%d: %v", ErrMalformedData, idx, err)
		}
		records = append(records, record)
	}

	return &Roster{items: records}, nil
}

func decodeRecord(item any) (EmployeeRecord, error) {
	var record EmployeeRecord

	fields, ok := item.(map[string]any)
	if !ok {
		return record, errors.New("expected an object")
	}

	for _, name := range requiredFields {
		if v, ok := fields[name]; !ok || v == nil {
			return record, fmt.Errorf("missing required field %q", name)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: rejectNumberAsString,
		Result:     &record,
		TagName:    "mapstructure",
	})
	if err != nil {
		return record, err
	}

	if err := decoder.Decode(fields); err != nil {
		return record, err
	}

	if strings.TrimSpace(record.Name) == "" {
		return record, errors.New("name must not be empty")
	}
	if record.ExperienceYears < 0 {
		return record, fmt.Errorf("experience_years must be non-negative, got %d", record.ExperienceYears)
	}
	if record.PastProjects == nil {
		record.PastProjects = []string{}
	}

	return record, nil
}

// rejectNumberAsString keeps numbers from silently landing in string fields.
func rejectNumberAsString(from, to reflect.Type, data any) (any, error) {
	if from == reflect.TypeOf(json.Number("")) && to.Kind() == reflect.String {
		return nil, fmt.Errorf("expected a string, got number %v", data)
	}
	return data, nil
}

// Len returns the number of employees.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}

// At returns the record at position idx.
func (r *Roster) At(idx int) EmployeeRecord {
	return r.items[idx].clone()
}

// All returns a copy of every record in roster order.
func (r *Roster) All() []EmployeeRecord {
	if r == nil {
		return []EmployeeRecord{}
	}
	out := make([]EmployeeRecord, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.clone())
	}
	return out
}

// Descriptions returns the skill description of each record in roster order.
func (r *Roster) Descriptions() []string {
	out := make([]string, 0, r.Len())
	for i := 0; i < r.Len(); i++ {
		out = append(out, r.items[i].SkillDescription())
	}
	return out
}

func (r *Roster) Names() []string {
	names := make([]string, 0, r.Len())
	for i := 0; i < r.Len(); i++ {
		names = append(names, r.items[i].Name)
	}
	return names
}

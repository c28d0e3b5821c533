package upload

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Field names of a multipart upload record.
const (
	FieldName      = "name"
	FieldType      = "type"
	FieldTmpName   = "tmp_name"
	FieldSize      = "size"
	FieldError     = "error"
	FieldLocalFile = "localFile"
)

// FieldMap is raw upload input keyed by field name. A value is a scalar for a
// single file, or a list ([]string, []any, []int64, []bool) holding one entry
// per file when several files arrive under the same input.
type FieldMap map[string]any

// RawUpload is one file of caller-supplied upload input.
type RawUpload struct {
	Name    string
	TmpName string
	// LocalFile marks a source that already sits on local storage (a generated
	// or previously downloaded file) rather than a fresh upload.
	LocalFile bool
	// Fields holds every field of the record, including the ones above.
	Fields map[string]string
}

// NormalizeUploads turns fields into an ordered list of uploads.
//
// When the primary field holds a list, the parallel lists are transposed into
// one record per index; entries missing at an index are empty and scalar
// fields are repeated on every record. When it holds a scalar the whole map
// becomes a single record. With ignoreBlank, a blank primary value yields no
// records and blank list entries are skipped.
func NormalizeUploads(fields FieldMap, ignoreBlank bool, primaryField string) []RawUpload {
	if primaryField == "" {
		primaryField = FieldName
	}
	primary := fields[primaryField]
	if ignoreBlank && isBlank(primary) {
		return []RawUpload{}
	}

	values, multiple := fieldList(primary)
	if !multiple {
		record := make(map[string]string, len(fields))
		for key, v := range fields {
			record[key] = fieldString(v)
		}
		return []RawUpload{newRawUpload(record)}
	}

	uploads := make([]RawUpload, 0, len(values))
	for i := range values {
		if ignoreBlank && values[i] == "" {
			continue
		}
		record := make(map[string]string, len(fields))
		for key, v := range fields {
			if list, ok := fieldList(v); ok {
				if i < len(list) {
					record[key] = list[i]
				} else {
					record[key] = ""
				}
				continue
			}
			record[key] = fieldString(v)
		}
		uploads = append(uploads, newRawUpload(record))
	}
	return uploads
}

func newRawUpload(record map[string]string) RawUpload {
	return RawUpload{
		Name:      record[FieldName],
		TmpName:   record[FieldTmpName],
		LocalFile: truthy(record[FieldLocalFile]),
		Fields:    record,
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	}
	if list, ok := fieldList(v); ok {
		return len(list) == 0
	}
	return false
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

func fieldList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = fieldString(e)
		}
		return out, true
	case []int64:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = strconv.FormatInt(e, 10)
		}
		return out, true
	case []bool:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = fieldString(e)
		}
		return out, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]string, rv.Len())
	for i := range out {
		out[i] = fieldString(rv.Index(i).Interface())
	}
	return out, true
}

func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return ""
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

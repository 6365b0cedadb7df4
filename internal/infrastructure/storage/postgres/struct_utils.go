package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names declared via "db" struct tags.
// Called once per repository at construction time.
func ExtractDBColumns[T any]() []string {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, extractColumns(field.Type)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

func extractColumns(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, extractColumns(field.Type)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

type fieldMeta struct {
	index int
	dbTag string
}

// Cached per-type field metadata so repeated StructToMap calls skip
// the tag scan.
var fieldMetaCache sync.Map // map[reflect.Type][]fieldMeta

func fieldsOf(t reflect.Type) []fieldMeta {
	if cached, ok := fieldMetaCache.Load(t); ok {
		return cached.([]fieldMeta)
	}

	var fields []fieldMeta
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		fields = append(fields, fieldMeta{index: i, dbTag: tag})
	}

	fieldMetaCache.Store(t, fields)
	return fields
}

// StructToMap converts a struct into a column->value map using "db" tags.
// Fields tagged "-" or untagged are skipped. Used to build INSERT/UPDATE
// statements with squirrel without listing every column by hand.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	t := rv.Type()
	fields := fieldsOf(t)

	res := make(map[string]any, len(fields))
	for _, fm := range fields {
		res[fm.dbTag] = rv.Field(fm.index).Interface()
	}

	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Anonymous {
			for k, val := range StructToMap(rv.Field(i).Interface()) {
				res[k] = val
			}
		}
	}

	return res
}

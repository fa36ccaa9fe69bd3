package debugui

import (
	"fmt"
	"reflect"
	"sync"
)

type fieldInfo struct {
	Name      string
	Index     int
	IsPointer bool
}

// fieldCache memoizes the exported fields of component struct types.
type fieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]fieldInfo
}

func newFieldCache() *fieldCache {
	return &fieldCache{
		fields: make(map[reflect.Type][]fieldInfo),
	}
}

func (fc *fieldCache) get(t reflect.Type) []fieldInfo {
	fc.mu.RLock()
	cached, ok := fc.fields[t]
	fc.mu.RUnlock()
	if ok {
		return cached
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if cached, ok := fc.fields[t]; ok {
		return cached
	}

	var fields []fieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			fields = append(fields, fieldInfo{
				Name:      field.Name,
				Index:     i,
				IsPointer: field.Type.Kind() == reflect.Ptr,
			})
		}
	}

	fc.fields[t] = fields
	return fields
}

var componentFields = newFieldCache()

// fieldLine is one rendered row of the component inspector. Depth grows
// by one for every nested struct.
type fieldLine struct {
	Depth int
	Name  string
	Value string
}

// describeComponent flattens a component into display rows. comp may be a
// value or a pointer to one.
func describeComponent(comp any) []fieldLine {
	val := reflect.ValueOf(comp)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return []fieldLine{{Name: "value", Value: formatValue(val)}}
	}
	return appendFields(nil, val, 0)
}

func appendFields(lines []fieldLine, val reflect.Value, depth int) []fieldLine {
	for _, field := range componentFields.get(val.Type()) {
		fieldVal := val.Field(field.Index)
		if field.IsPointer {
			if fieldVal.IsNil() {
				lines = append(lines, fieldLine{Depth: depth, Name: field.Name, Value: "nil"})
				continue
			}
			fieldVal = fieldVal.Elem()
		}

		if fieldVal.Kind() == reflect.Struct && fieldVal.Type() != entityType {
			lines = append(lines, fieldLine{Depth: depth, Name: field.Name})
			lines = appendFields(lines, fieldVal, depth+1)
			continue
		}
		lines = append(lines, fieldLine{Depth: depth, Name: field.Name, Value: formatValue(fieldVal)})
	}
	return lines
}

func formatValue(val reflect.Value) string {
	switch val.Kind() {
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.3f", val.Float())
	case reflect.String:
		return fmt.Sprintf("%q", val.String())
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("[%d items]", val.Len())
	case reflect.Map:
		return fmt.Sprintf("map[%d items]", val.Len())
	case reflect.Func, reflect.Chan:
		if val.IsNil() {
			return "nil"
		}
		return val.Type().String()
	default:
		if val.CanInterface() {
			return fmt.Sprintf("%v", val.Interface())
		}
		return val.Type().String()
	}
}

package array

import (
	"reflect"

	"github.com/pkg/errors"
)

// ToList materializes the array as nested []any values with float64 leaves.
// A rank-0 array yields a bare float64.
func (a *Array) ToList() any {
	if len(a.shape) == 0 {
		return a.data[0]
	}
	return toList(a.data, a.shape, a.strides)
}

func toList(data []float64, shape Shape, strides []int) any {
	if len(shape) == 1 {
		out := make([]any, shape[0])
		for i := range out {
			out[i] = data[i]
		}
		return out
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i] = toList(data[i*strides[0]:(i+1)*strides[0]], shape[1:], strides[1:])
	}
	return out
}

// FromNested builds an array from a number or arbitrarily nested slices of
// numbers ([]float64, [][]float64, []any, ...). Nested slices must be
// rectangular.
func FromNested(v any) (*Array, error) {
	shape, err := nestedShape(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	buf := make([]float64, 0, shape.NumElements())
	buf, err = flatten(reflect.ValueOf(v), shape, buf)
	if err != nil {
		return nil, err
	}
	return wrap(buf, shape), nil
}

func nestedShape(v reflect.Value) (Shape, error) {
	v = unwrapInterface(v)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, errors.Wrap(ErrInvalidShape, "empty nested slice")
		}
		inner, err := nestedShape(v.Index(0))
		if err != nil {
			return nil, err
		}
		return append(Shape{v.Len()}, inner...), nil
	default:
		if _, ok := toFloat(v); !ok {
			return nil, errors.Errorf("unsupported element type %s", v.Kind())
		}
		return Shape{}, nil
	}
}

func flatten(v reflect.Value, shape Shape, buf []float64) ([]float64, error) {
	v = unwrapInterface(v)
	if len(shape) == 0 {
		f, ok := toFloat(v)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidShape, "ragged nested slice: expected number, got %s", v.Kind())
		}
		return append(buf, f), nil
	}
	if (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) || v.Len() != shape[0] {
		return nil, errors.Wrapf(ErrInvalidShape, "ragged nested slice: expected length %d", shape[0])
	}
	var err error
	for i := 0; i < v.Len(); i++ {
		if buf, err = flatten(v.Index(i), shape[1:], buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func toFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}

package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// KeyPart is implemented by arguments that know their own cache key form,
// e.g. member.PageQuery.
type KeyPart interface {
	CacheKey() string
}

// defaultKeySerializer joins the method and one segment per argument.
// Segments are deterministic for the value, so equal queries share a key.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds "method::arg1::arg2".
func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	return joinKey(method, args, serializeValue)
}

// hashedKeySerializer replaces segments longer than maxSegment with an
// xxhash digest so free-text search terms cannot blow up key length.
// The method prefix is never hashed, keeping prefix invalidation intact.
type hashedKeySerializer struct {
	maxSegment int
}

// NewHashedKeySerializer returns a serializer that hashes any segment longer
// than maxSegment bytes. A non-positive maxSegment defaults to 64.
func NewHashedKeySerializer(maxSegment int) KeySerializer {
	if maxSegment <= 0 {
		maxSegment = 64
	}
	return &hashedKeySerializer{maxSegment: maxSegment}
}

func (s *hashedKeySerializer) SerializeKey(method string, args ...any) string {
	return joinKey(method, args, func(v any) string {
		seg := serializeValue(v)
		if len(seg) <= s.maxSegment {
			return seg
		}
		return "h:" + strconv.FormatUint(xxhash.Sum64String(seg), 16)
	})
}

func joinKey(method string, args []any, segment func(any) string) string {
	if len(args) == 0 {
		return method
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, segment(arg))
	}
	return strings.Join(parts, KeySeparator)
}

// serializeValue handles individual argument serialization based on type.
func serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	switch tv := v.(type) {
	case KeyPart:
		return tv.CacheKey()
	case string:
		return tv
	case fmt.Stringer:
		return tv.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return serializeValue(rv.Elem().Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return serializeList(rv)
	case reflect.Array:
		return serializeList(rv)
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", v)
	}

	return jsonFallback(v)
}

func serializeList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = serializeValue(rv.Index(i).Interface())
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ","))
}

// jsonFallback covers maps and structs; encoding/json sorts map keys.
func jsonFallback(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("fallback:%T", v)
	}
	return "json:" + string(data)
}

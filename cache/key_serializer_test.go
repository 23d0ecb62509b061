package cache

import (
	"strings"
	"testing"
)

type pageKey struct {
	page int
	q    string
}

func (p pageKey) CacheKey() string {
	return "p" + string(rune('0'+p.page)) + ":" + p.q
}

type stringerID string

func (s stringerID) String() string { return "id-" + string(s) }

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name   string
		method string
		args   []any
		want   string
	}{
		{
			name:   "no args",
			method: "List",
			args:   []any{},
			want:   "List",
		},
		{
			name:   "single int",
			method: "GetByID",
			args:   []any{42},
			want:   joinWithSeparator("GetByID", "42"),
		},
		{
			name:   "multiple basic types",
			method: "Get",
			args:   []any{1, "hello", true, 3.14},
			want:   joinWithSeparator("Get", "1", "hello", "true", "3.14"),
		},
		{
			name:   "key part",
			method: "List",
			args:   []any{pageKey{page: 2, q: "dev"}},
			want:   joinWithSeparator("List", "p2:dev"),
		},
		{
			name:   "stringer",
			method: "GetByID",
			args:   []any{stringerID("7")},
			want:   joinWithSeparator("GetByID", "id-7"),
		},
		{
			name:   "nil and nil pointer",
			method: "Get",
			args:   []any{nil, (*int)(nil)},
			want:   joinWithSeparator("Get", "nil", "nil"),
		},
		{
			name:   "slice",
			method: "Get",
			args:   []any{[]int{1, 2}},
			want:   joinWithSeparator("Get", "[1,2]"),
		},
		{
			name:   "map falls back to json",
			method: "Get",
			args:   []any{map[string]int{"b": 2, "a": 1}},
			want:   joinWithSeparator("Get", `json:{"a":1,"b":2}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.method, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_Deterministic(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	a := serializer.SerializeKey("List", pageKey{page: 1, q: "x"}, "gen1")
	b := serializer.SerializeKey("List", pageKey{page: 1, q: "x"}, "gen1")
	if a != b {
		t.Errorf("expected equal keys, got %q and %q", a, b)
	}
}

func TestHashedKeySerializer_ShortensLongSegments(t *testing.T) {
	serializer := NewHashedKeySerializer(16)

	short := serializer.SerializeKey("GetByID", "42")
	if short != joinWithSeparator("GetByID", "42") {
		t.Errorf("short segment should be kept, got %q", short)
	}

	long := strings.Repeat("engineer ", 20)
	key := serializer.SerializeKey("List", long)
	if !strings.HasPrefix(key, "List"+KeySeparator+"h:") {
		t.Errorf("expected hashed segment, got %q", key)
	}
	if len(key) > 40 {
		t.Errorf("expected a short key, got %d bytes", len(key))
	}

	if key != serializer.SerializeKey("List", long) {
		t.Error("hashed keys must be stable")
	}
	if key == serializer.SerializeKey("List", long+"x") {
		t.Error("different segments must hash differently")
	}
}

// Package member holds the directory data model shared by the collection
// client, the caches and the controllers.
//
// A Member is created from Fields (everything but the id), changed through a
// Patch (any subset of Fields) and listed page by page through a PageQuery
// that yields a PageResult.
package member

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field names as they appear on the wire and in validation markers.
const (
	FieldName  = "name"
	FieldRole  = "role"
	FieldEmail = "email"
	FieldBio   = "bio"
)

// FieldNames lists the editable fields in form order.
var FieldNames = []string{FieldName, FieldRole, FieldEmail, FieldBio}

// ID is the opaque identifier assigned by the remote store on creation.
// Stores that hand out integers (json-server) are accepted and kept as text.
type ID string

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("member: invalid id %s", raw)
	}
	*id = ID(raw)
	return nil
}

// Member is one directory entry.
type Member struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Bio   string `json:"bio,omitempty"`
}

// Fields returns the editable part of the member.
func (m Member) Fields() Fields {
	return Fields{Name: m.Name, Role: m.Role, Email: m.Email, Bio: m.Bio}
}

// Fields is the create payload: a member without its id.
type Fields struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Bio   string `json:"bio"`
}

// Get returns the value of the named field.
func (f Fields) Get(field string) (string, error) {
	switch field {
	case FieldName:
		return f.Name, nil
	case FieldRole:
		return f.Role, nil
	case FieldEmail:
		return f.Email, nil
	case FieldBio:
		return f.Bio, nil
	}
	return "", fmt.Errorf("member: unknown field %q", field)
}

// With returns a copy of f with the named field set to value.
func (f Fields) With(field, value string) (Fields, error) {
	switch field {
	case FieldName:
		f.Name = value
	case FieldRole:
		f.Role = value
	case FieldEmail:
		f.Email = value
	case FieldBio:
		f.Bio = value
	default:
		return f, fmt.Errorf("member: unknown field %q", field)
	}
	return f, nil
}

// Patch is a partial update. Nil fields are left untouched by the server.
type Patch struct {
	Name  *string `json:"name,omitempty"`
	Role  *string `json:"role,omitempty"`
	Email *string `json:"email,omitempty"`
	Bio   *string `json:"bio,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Role == nil && p.Email == nil && p.Bio == nil
}

// Apply returns m with the patch applied.
func (p Patch) Apply(m Member) Member {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Role != nil {
		m.Role = *p.Role
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Bio != nil {
		m.Bio = *p.Bio
	}
	return m
}

// Diff builds the patch that turns from into to.
func Diff(from, to Fields) Patch {
	var p Patch
	if from.Name != to.Name {
		p.Name = &to.Name
	}
	if from.Role != to.Role {
		p.Role = &to.Role
	}
	if from.Email != to.Email {
		p.Email = &to.Email
	}
	if from.Bio != to.Bio {
		p.Bio = &to.Bio
	}
	return p
}

// PageQuery identifies one list request.
type PageQuery struct {
	Search   string
	Page     int
	PageSize int
}

// Normalize forces Page to at least 1.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// CacheKey renders the query as a stable cache key segment.
func (q PageQuery) CacheKey() string {
	q = q.Normalize()
	return fmt.Sprintf("page=%d;size=%d;q=%s", q.Page, q.PageSize, q.Search)
}

// PageResult is one page of members plus the full filtered count.
type PageResult struct {
	Members []Member `json:"members"`
	Total   int      `json:"total"`
}

// TotalPages is ceil(Total / pageSize).
func (r PageResult) TotalPages(pageSize int) int {
	return TotalPages(r.Total, pageSize)
}

// TotalPages is ceil(total / pageSize), zero for a non-positive page size.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

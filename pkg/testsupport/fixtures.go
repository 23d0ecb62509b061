package testsupport

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-team-directory/member"
)

//go:embed testdata/members.json
var membersFixture []byte

// Members returns the seven fixture members (ids "1" to "7"), in id order.
func Members() []member.Member {
	var out []member.Member
	if err := json.Unmarshal(membersFixture, &out); err != nil {
		panic(fmt.Sprintf("testsupport: invalid members fixture: %v", err))
	}
	return out
}

// GenerateMembers returns n synthetic members with ids "1" to "n".
func GenerateMembers(n int) []member.Member {
	out := make([]member.Member, n)
	for i := range out {
		id := i + 1
		out[i] = member.Member{
			ID:    member.ID(fmt.Sprint(id)),
			Name:  fmt.Sprintf("Member %d", id),
			Role:  fmt.Sprintf("Role %d", id%5),
			Email: fmt.Sprintf("member%d@company.com", id),
			Bio:   fmt.Sprintf("Bio of member %d.", id),
		}
	}
	return out
}

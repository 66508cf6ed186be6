package exclusion

import (
	"strings"

	"github.com/wonny/volscan/internal/contracts"
)

// Resolver decides exclusion by display-name fragment and by the two symbol lists.
// A Resolver is built once per channel run and is read-only afterwards.
type Resolver struct {
	fragments map[string]struct{}
	list1     map[string]struct{}
	list2     map[string]struct{}
}

// NewResolver builds a resolver; fragments are lower-cased, symbols upper-cased
func NewResolver(fragments, list1, list2 []string) *Resolver {
	return &Resolver{
		fragments: toSet(fragments, strings.ToLower),
		list1:     toSet(list1, strings.ToUpper),
		list2:     toSet(list2, strings.ToUpper),
	}
}

// Empty is a resolver that never excludes
func Empty() *Resolver {
	return NewResolver(nil, nil, nil)
}

func toSet(values []string, fold func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = fold(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// ShouldExclude applies the name rule and then both list rules.
// It is the combined check for callers without a numeric phase (volscan exclude);
// the screening pipeline calls MatchName before and MatchLists after its numeric filters.
func (r *Resolver) ShouldExclude(symbol string, name *string, ch contracts.Channel) (bool, *contracts.Reason) {
	if excluded, reason := r.MatchName(name); excluded {
		return true, reason
	}
	return r.MatchLists(symbol, ch)
}

// MatchName tokenizes the display name on whitespace; the first token found in
// the fragment set wins. An absent name never matches.
func (r *Resolver) MatchName(name *string) (bool, *contracts.Reason) {
	if r == nil || name == nil || len(r.fragments) == 0 {
		return false, nil
	}

	for _, token := range strings.Fields(*name) {
		token = strings.ToLower(token)
		if _, ok := r.fragments[token]; ok {
			return true, &contracts.Reason{
				Code:   contracts.ReasonNameFragment,
				Detail: "name matches exclusion fragment '" + token + "'",
			}
		}
	}
	return false, nil
}

// MatchLists checks list 1 then list 2, each only when the channel enables it
func (r *Resolver) MatchLists(symbol string, ch contracts.Channel) (bool, *contracts.Reason) {
	if r == nil {
		return false, nil
	}

	key := strings.ToUpper(strings.TrimSpace(symbol))
	if ch.UseList1 {
		if _, ok := r.list1[key]; ok {
			return true, &contracts.Reason{Code: contracts.ReasonList1, Detail: "listed in exclusion list 1"}
		}
	}
	if ch.UseList2 {
		if _, ok := r.list2[key]; ok {
			return true, &contracts.Reason{Code: contracts.ReasonList2, Detail: "listed in exclusion list 2"}
		}
	}
	return false, nil
}

// Sizes reports the loaded fragment and list sizes
func (r *Resolver) Sizes() (fragments, list1, list2 int) {
	return len(r.fragments), len(r.list1), len(r.list2)
}

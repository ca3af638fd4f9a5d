package browser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-rod/rod/lib/proto"
)

// DecodeStorageState parses a storage state record. An empty record yields
// an empty state.
func DecodeStorageState(data []byte) (*StorageState, error) {
	state := &StorageState{}
	if len(bytes.TrimSpace(data)) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, &BrowserError{
			Code:    ErrCodeValidation,
			Message: fmt.Sprintf("Invalid storage state: %v", err),
			Err:     err,
		}
	}
	return state, nil
}

// EncodeStorageState serializes a storage state record
func EncodeStorageState(state *StorageState) ([]byte, error) {
	if state.Cookies == nil {
		state.Cookies = []Cookie{}
	}
	if state.Origins == nil {
		state.Origins = []OriginState{}
	}
	return json.MarshalIndent(state, "", "  ")
}

func toCookieParams(cookies []Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: proto.NetworkCookieSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			p.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params = append(params, p)
	}
	return params
}

func fromNetworkCookies(cookies []*proto.NetworkCookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		expires := float64(c.Expires)
		if c.Session {
			expires = -1
		}
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out
}

// localStorageScript returns a script that seeds local storage for the
// matching origin before any page script runs.
func localStorageScript(origins []OriginState) string {
	seed := make(map[string]map[string]string)
	for _, o := range origins {
		if len(o.LocalStorage) == 0 {
			continue
		}
		items := make(map[string]string, len(o.LocalStorage))
		for _, kv := range o.LocalStorage {
			items[kv.Name] = kv.Value
		}
		seed[o.Origin] = items
	}
	if len(seed) == 0 {
		return ""
	}

	data, _ := json.Marshal(seed)
	return fmt.Sprintf(`(() => {
	const seed = %s;
	const items = seed[window.location.origin];
	if (!items) return;
	try {
		for (const [k, v] of Object.entries(items)) {
			if (window.localStorage.getItem(k) === null) window.localStorage.setItem(k, v);
		}
	} catch (e) {}
})();`, data)
}

// mergeOrigin adds o to origins, replacing an entry for the same origin
func mergeOrigin(origins []OriginState, o OriginState) []OriginState {
	sort.Slice(o.LocalStorage, func(i, j int) bool {
		return o.LocalStorage[i].Name < o.LocalStorage[j].Name
	})
	for i := range origins {
		if origins[i].Origin == o.Origin {
			origins[i] = o
			return origins
		}
	}
	return append(origins, o)
}

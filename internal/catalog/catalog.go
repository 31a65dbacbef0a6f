// Package catalog holds the remote album list and resolves configured album
// names to album ids.
package catalog

import (
	"context"
	"fmt"
)

// Album is a remote album's display name and stable id.
type Album struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// List is the complete album list for one account, in service order.
type List []Album

// Lister fetches every album for user in one request.
type Lister interface {
	ListAlbums(ctx context.Context, token, user string) ([]Album, error)
}

// Fetch lists the albums for user. A user with no albums yields an empty
// List and a nil error.
func Fetch(ctx context.Context, l Lister, token, user string) (List, error) {
	albums, err := l.ListAlbums(ctx, token, user)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	return List(albums), nil
}

// Lookup returns the album whose name exactly matches name. Matching is
// case-sensitive.
func (l List) Lookup(name string) (Album, bool) {
	for _, a := range l {
		if a.Name == name {
			return a, true
		}
	}
	return Album{}, false
}

// Empty reports whether the account has no albums.
func (l List) Empty() bool {
	return len(l) == 0
}

// Names returns album names in list order.
func (l List) Names() []string {
	names := make([]string, len(l))
	for i, a := range l {
		names[i] = a.Name
	}
	return names
}

// IDs returns album ids in list order.
func (l List) IDs() []string {
	ids := make([]string, len(l))
	for i, a := range l {
		ids[i] = a.ID
	}
	return ids
}

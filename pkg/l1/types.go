// Package l1 defines how boards are identified to tools above them.
package l1

import "strings"

// BoardRef is a reference to a running board.
type BoardRef struct {
	// Type is the board role, e.g. driver or remote.
	Type string
	// ID is unique ID of the board instance.
	ID string
}

// Name retrieves the name from ref.
func (r BoardRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates BoardRef is valid.
func (r BoardRef) IsValid() bool {
	return r.Type != "" && r.ID != "" &&
		!strings.ContainsAny(r.Type+r.ID, "/+#")
}

// ParseBoardRef parses the form produced by Name.
func ParseBoardRef(name string) (ref BoardRef, ok bool) {
	items := strings.Split(name, "/")
	if len(items) != 2 {
		return
	}
	ref = BoardRef{Type: items[0], ID: items[1]}
	return ref, ref.IsValid()
}

// BoardMeta provides metadata for a board.
type BoardMeta struct {
	Description string            `json:"description,omitempty"`
	Profile     string            `json:"profile,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// BoardInfo provides information of a board.
type BoardInfo struct {
	Ref  BoardRef
	Meta BoardMeta
}

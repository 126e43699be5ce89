package pagination

import (
	"encoding/base64"
	"encoding/json"

	"github.com/juju/errors"
)

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

var ErrInvalidPagination = errors.New("pagination: first and last are mutually exclusive")

type Cursor string

func (c Cursor) String() string {
	return string(c)
}

func (c Cursor) IsEmpty() bool {
	return c == ""
}

func ToCursor(v any) (Cursor, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return Cursor(""), errors.Trace(err)
	}

	return Cursor(base64.URLEncoding.EncodeToString(out)), nil
}

func FromCursor(c Cursor, out any) error {
	decoded, err := base64.URLEncoding.DecodeString(c.String())
	if err != nil {
		return errors.Trace(err)
	}

	if err := json.Unmarshal(decoded, out); err != nil {
		return errors.Trace(err)
	}

	return nil
}

type PageInfo struct {
	HasPreviousPage bool   `json:"has_previous_page"`
	HasNextPage     bool   `json:"has_next_page"`
	StartCursor     Cursor `json:"start_cursor,omitempty"`
	EndCursor       Cursor `json:"end_cursor,omitempty"`
}

type Edge[T any] struct {
	Node   T      `json:"node"`
	Cursor Cursor `json:"cursor"`
}

type Connection[T any] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo PageInfo  `json:"page_info"`
}

// NewConnection builds a page out of edges fetched with Limit()+1 rows so the
// extra row tells whether there is more data. Edges fetched backwards are
// reversed back into natural order.
func NewConnection[T any](p Pagination, edges []Edge[T]) Connection[T] {
	hasMore := len(edges) > p.Limit()
	if hasMore {
		edges = edges[:p.Limit()]
	}

	if !p.IsForward() {
		for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
			edges[i], edges[j] = edges[j], edges[i]
		}
	}

	out := Connection[T]{
		Edges: edges,
		PageInfo: PageInfo{
			HasPreviousPage: hasMore && !p.IsForward(),
			HasNextPage:     hasMore && p.IsForward(),
		},
	}

	if len(edges) > 0 {
		out.PageInfo.StartCursor = edges[0].Cursor
		out.PageInfo.EndCursor = edges[len(edges)-1].Cursor
	}

	return out
}

type PaginationOpts func(p *Pagination)

func NewOldestFirstPagination(opts ...PaginationOpts) Pagination {
	p := Pagination{}

	for _, opt := range opts {
		opt(&p)
	}

	p.Kind = PaginationKindOldestFirst

	return p
}

func NewNewestFirstPagination(opts ...PaginationOpts) Pagination {
	p := Pagination{}

	for _, opt := range opts {
		opt(&p)
	}

	p.Kind = PaginationKindNewestFirst

	return p
}

func WithBefore(c Cursor) PaginationOpts {
	return func(p *Pagination) {
		p.Before = c
	}
}

func WithAfter(c Cursor) PaginationOpts {
	return func(p *Pagination) {
		p.After = c
	}
}

func WithFirst(i int) PaginationOpts {
	return func(p *Pagination) {
		p.First = i
	}
}

func WithLast(i int) PaginationOpts {
	return func(p *Pagination) {
		p.Last = i
	}
}

type Pagination struct {
	Before Cursor
	After  Cursor
	First  int
	Last   int
	Kind   PaginationKind
}

type PaginationKind int

const (
	PaginationKindNewestFirst PaginationKind = iota
	PaginationKindOldestFirst
)

func (p *Pagination) Validate() error {
	if p.First < 0 || p.Last < 0 {
		return errors.Annotate(ErrInvalidPagination, "negative page size")
	}

	if p.First > 0 && p.Last > 0 {
		return errors.Trace(ErrInvalidPagination)
	}

	return nil
}

// Limit returns the pagination's limit.
// 1 is returned if no limit was specified, and MaxLimit bounds it.
func (p *Pagination) Limit() int {
	var limit int
	if p.IsForward() {
		limit = p.First
	} else {
		limit = p.Last
	}

	switch {
	case limit <= 0:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}

	return limit
}

func (p *Pagination) Cursor() Cursor {
	if p.IsForward() {
		return p.After
	}

	return p.Before
}

func (p *Pagination) OrderBy() string {
	if p.Kind == PaginationKindOldestFirst {
		if p.IsForward() {
			return "ASC"
		}
		return "DESC"
	}

	if p.IsForward() {
		return "DESC"
	}

	return "ASC"
}

func (p *Pagination) Comparator() string {
	if p.Kind == PaginationKindOldestFirst {
		if p.IsForward() {
			return ">"
		}
		return "<"
	}

	if p.IsForward() {
		return "<"
	}

	return ">"
}

func (p *Pagination) IsForward() bool {
	return p.Last == 0
}

package response

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
)

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
	// MaxPageNumber keeps Number*Size far from int overflow.
	MaxPageNumber = 1 << 30
)

// Page is a resolved page-number request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Check reports ErrNotFound for a page past the last one. Page 1 always
// exists, even when count is zero.
func (p Page) Check(count int64) error {
	if p.Number > 1 && int64(p.Offset()) >= count {
		return pkgerrors.WithMessage(pkgerrors.ErrNotFound, fmt.Sprintf("Invalid page %d.", p.Number))
	}
	return nil
}

// ParsePage reads ?page and ?limit. Missing or malformed values fall back to
// page 1 and DefaultPageSize; the size is capped at MaxPageSize and the number
// at MaxPageNumber.
func ParsePage(c *gin.Context) Page {
	p := Page{Number: 1, Size: DefaultPageSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		p.Size = n
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	return p
}

type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPaginated builds the envelope with absolute next/previous links that
// keep every other query parameter of the request.
func NewPaginated[T any](c *gin.Context, p Page, count int64, results []T) Paginated[T] {
	if results == nil {
		results = []T{}
	}
	out := Paginated[T]{Count: count, Results: results}
	if p.Number < MaxPageNumber && int64(p.Number)*int64(p.Size) < count {
		out.Next = pageLink(c, p.Number+1)
	}
	if p.Number > 1 {
		out.Previous = pageLink(c, p.Number-1)
	}
	return out
}

func pageLink(c *gin.Context, number int) *string {
	u := url.URL{
		Scheme: requestScheme(c),
		Host:   c.Request.Host,
		Path:   c.Request.URL.Path,
	}
	q := c.Request.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

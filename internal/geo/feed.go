package geo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidFix is returned for a position line that cannot be parsed.
var ErrInvalidFix = errors.New("invalid position fix")

// Feed fans position fixes out to subscribers.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]chan Point
	next   int
	closed bool
}

// NewFeed creates an open feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Point)}
}

// Subscribe registers a subscriber with the given channel buffer and returns
// its channel and a function that ends the subscription.
func (f *Feed) Subscribe(buffer int) (<-chan Point, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Point, buffer)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := f.next
	f.next++
	f.subs[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
}

// Publish delivers p to every subscriber without blocking. A subscriber whose
// buffer is full loses its oldest pending fix.
func (f *Feed) Publish(p Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ch := range f.subs {
		select {
		case ch <- p:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- p:
		default:
		}
	}
}

// Close ends all subscriptions. Publishing after Close is a no-op.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}

// ParsePoint parses "lat,lng".
func ParsePoint(s string) (Point, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidFix, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: latitude %q", ErrInvalidFix, latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: longitude %q", ErrInvalidFix, lngStr)
	}
	p := Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return Point{}, fmt.Errorf("%w: %q out of range", ErrInvalidFix, s)
	}
	return p, nil
}

// ScanFixes reads "lat,lng" lines from r and publishes each onto feed.
// Blank lines and lines starting with '#' are skipped. It returns at EOF,
// on the first malformed line or when ctx is done.
func ScanFixes(ctx context.Context, r io.Reader, feed *Feed) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := ParsePoint(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		feed.Publish(p)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading fixes: %w", err)
	}
	return nil
}

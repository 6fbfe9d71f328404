package playhq

import (
	"context"
	"fmt"
	"testing"
)

func TestCollectPagesConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	pages := []Page[string]{
		{Data: []string{"a", "b"}, Metadata: PageMetadata{HasMore: true, NextCursor: "c1"}},
		{Data: []string{"c"}, Metadata: PageMetadata{HasMore: true, NextCursor: "c2"}},
		{Data: []string{"d", "e"}, Metadata: PageMetadata{HasMore: false}},
	}

	calls := 0
	seenCursors := make([]string, 0, len(pages))
	out, err := collectPages(context.Background(), func(_ context.Context, cursor string) (Page[string], error) {
		seenCursors = append(seenCursors, cursor)
		page := pages[calls]
		calls++
		return page, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 fetch calls, got=%d", calls)
	}
	if got := fmt.Sprint(out); got != "[a b c d e]" {
		t.Fatalf("unexpected collected data: %s", got)
	}
	if got := fmt.Sprint(seenCursors); got != "[ c1 c2]" {
		t.Fatalf("unexpected cursor sequence: %s", got)
	}
}

func TestCollectPagesStopsWhenCursorMissingDespiteHasMore(t *testing.T) {
	t.Parallel()

	calls := 0
	out, err := collectPages(context.Background(), func(_ context.Context, _ string) (Page[int], error) {
		calls++
		return Page[int]{Data: []int{calls}, Metadata: PageMetadata{HasMore: true, NextCursor: "  "}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected walk to terminate after 1 call, got=%d", calls)
	}
	if len(out) != 1 || out[0] != 1 {
		t.Fatalf("unexpected data: %v", out)
	}
}

func TestCollectPagesPropagatesFetchError(t *testing.T) {
	t.Parallel()

	boom := fmt.Errorf("page fetch failed")
	_, err := collectPages(context.Background(), func(_ context.Context, _ string) (Page[int], error) {
		return Page[int]{}, boom
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestCollectPagesSinglePage(t *testing.T) {
	t.Parallel()

	calls := 0
	out, err := collectPages(context.Background(), func(_ context.Context, _ string) (Page[string], error) {
		calls++
		return Page[string]{Data: []string{"only"}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 call, got=%d", calls)
	}
	if len(out) != 1 || out[0] != "only" {
		t.Fatalf("unexpected data: %v", out)
	}
}

package playhq

import (
	"context"
	"strings"
)

// Page is one slice of a cursor-paginated collection.
type Page[T any] struct {
	Data     []T          `json:"data"`
	Metadata PageMetadata `json:"metadata"`
}

type PageMetadata struct {
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor"`
}

// collectPages drains a cursor-paginated resource into a single slice,
// preserving upstream page order. The first call passes an empty cursor.
func collectPages[T any](ctx context.Context, fetch func(ctx context.Context, cursor string) (Page[T], error)) ([]T, error) {
	out := make([]T, 0, 32)
	cursor := ""
	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Data...)

		if !page.Metadata.HasMore {
			return out, nil
		}
		next := strings.TrimSpace(page.Metadata.NextCursor)
		if next == "" {
			// hasMore without a cursor cannot advance; stop instead of
			// refetching the same page forever.
			return out, nil
		}
		cursor = next
	}
}

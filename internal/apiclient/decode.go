package apiclient

import (
	"bytes"
	"encoding/json"

	"github.com/ctks/admin-console/internal/model"
)

// listBody accepts both {data:[...]} envelopes and bare arrays; a few older
// endpoints answer with the array itself.
type listBody[T any] struct {
	model.ListEnvelope[T]
}

func (l *listBody[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &l.Data)
	}
	return json.Unmarshal(b, &l.ListEnvelope)
}

func (l *listBody[T]) rows() []T {
	if l.Data == nil {
		return []T{}
	}
	return l.Data
}

// page converts an envelope to a Page, filling the paging block when the
// backend omitted it.
func (l *listBody[T]) page(page, limit int) model.Page[T] {
	rows := l.rows()
	if l.Pagination != nil {
		return model.Page[T]{Rows: rows, Pagination: *l.Pagination}
	}
	total := len(rows)
	if l.Total != nil {
		total = *l.Total
	}
	pages := 1
	if limit > 0 && total > 0 {
		pages = (total + limit - 1) / limit
	}
	return model.Page[T]{Rows: rows, Pagination: model.Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}}
}

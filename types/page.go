/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import "math"

// Pagination defaults applied when a request carries a non-positive value.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
)

// SearchRequest describes filters, ordering and pagination for a search.
type SearchRequest[F any] struct {
	Filters         F      `json:"filters" yaml:"filters"`
	OrderByColumn   string `json:"order_by_column" yaml:"order_by_column"`
	OrderDescending bool   `json:"order_descending" yaml:"order_descending"`
	PageNumber      int    `json:"page_number" yaml:"page_number"`
	PageSize        int    `json:"page_size" yaml:"page_size"`
}

// NewSearchRequest constructs a SearchRequest without ordering.
func NewSearchRequest[F any](filters F, pageNumber int, pageSize int) *SearchRequest[F] {
	return &SearchRequest[F]{Filters: filters, PageNumber: pageNumber, PageSize: pageSize}
}

// WithOrder sets the ordering column and direction and returns the request.
func (r *SearchRequest[F]) WithOrder(column string, descending bool) *SearchRequest[F] {
	r.OrderByColumn = column
	r.OrderDescending = descending
	return r
}

func (r *SearchRequest[F]) GetPageNumber() int {
	if r.PageNumber < 1 {
		return DefaultPageNumber
	}
	return r.PageNumber
}

func (r *SearchRequest[F]) GetPageSize() int {
	if r.PageSize < 1 {
		return DefaultPageSize
	}
	return r.PageSize
}

// GetOffset returns the number of rows to skip. It saturates at math.MaxInt
// instead of overflowing, so a page far past the end stays empty.
func (r *SearchRequest[F]) GetOffset() int {
	skipped, size := r.GetPageNumber()-1, r.GetPageSize()
	if skipped > math.MaxInt/size {
		return math.MaxInt
	}
	return skipped * size
}

// SearchResponse holds one page of results along with the counts of the
// whole filtered set.
type SearchResponse[T any] struct {
	Items      []*T `json:"items"`
	TotalCount int  `json:"total_count"`
	PageNumber int  `json:"page_number"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
}

// NewSearchResponse builds a response and derives TotalPages from the total
// count and page size.
func NewSearchResponse[T any](items []*T, totalCount int, pageNumber int, pageSize int) *SearchResponse[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &SearchResponse[T]{
		Items:      items,
		TotalCount: totalCount,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalPages: TotalPages(totalCount, pageSize),
	}
}

// TotalPages returns ceil(totalCount / pageSize), or 0 when pageSize is not positive.
func TotalPages(totalCount int, pageSize int) int {
	if pageSize < 1 || totalCount < 1 {
		return 0
	}
	pages := totalCount / pageSize
	if totalCount%pageSize != 0 {
		pages++
	}
	return pages
}

// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/blinklabs-io/credmint/database"
)

const (
	DefaultPageCount = 20
	MaxPageCount     = 100
	OrderAsc         = "asc"
	OrderDesc        = "desc"
)

var ErrInvalidPagination = errors.New("invalid pagination parameters")

// Page holds the parsed count, page and order query values
type Page struct {
	Count int
	Page  int
	Order string
}

// ListOptions converts the page to a store query
func (p Page) ListOptions() database.ListOptions {
	return database.ListOptions{
		Count:      p.Count,
		Page:       p.Page,
		Descending: p.Order == OrderDesc,
	}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrInvalidPagination
	}
	return v, nil
}

// ParsePage reads count, page and order from the query string, clamping
// count to 1..MaxPageCount and page to at least 1
func ParsePage(r *http.Request) (Page, error) {
	count, err := queryInt(r, "count", DefaultPageCount)
	if err != nil {
		return Page{}, err
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return Page{}, err
	}
	order := OrderAsc
	if raw := r.URL.Query().Get("order"); raw != "" {
		order = strings.ToLower(raw)
		if order != OrderAsc && order != OrderDesc {
			return Page{}, ErrInvalidPagination
		}
	}
	return Page{
		Count: min(max(count, 1), MaxPageCount),
		Page:  max(page, 1),
		Order: order,
	}, nil
}

// SetPageHeaders reports the total item and page counts
func SetPageHeaders(w http.ResponseWriter, total int64, p Page) {
	total = max(total, 0)
	var pages int64
	if total > 0 && p.Count > 0 {
		pages = (total + int64(p.Count) - 1) / int64(p.Count)
	}
	w.Header().Set("X-Pagination-Count-Total", strconv.FormatInt(total, 10))
	w.Header().Set("X-Pagination-Page-Total", strconv.FormatInt(pages, 10))
}

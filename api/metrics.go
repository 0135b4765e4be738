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
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type apiMetrics struct {
	requests *prometheus.CounterVec
}

func initAPIMetrics(reg prometheus.Registerer) *apiMetrics {
	promautoFactory := promauto.With(reg)
	return &apiMetrics{
		requests: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credmint_api_requests_total",
				Help: "total API requests by route and status code",
			},
			[]string{"route", "status"},
		),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handle registers a handler that counts requests under its route pattern
func (s *Server) handle(
	mux *http.ServeMux,
	pattern string,
	handler http.HandlerFunc,
) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(rec, r)
		s.metrics.requests.WithLabelValues(
			pattern,
			strconv.Itoa(rec.status),
		).Inc()
	})
}

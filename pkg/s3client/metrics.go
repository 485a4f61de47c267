// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"strconv"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/debug"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3action"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapctl",
			Name:      "requests_total",
			Help:      "Signed requests sent, by operation, operation type and response status",
		},
		[]string{"op", "type", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zapctl",
			Name:      "request_duration_seconds",
			Help:      "Time from send to response headers, by operation",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	bodyPrepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "zapctl",
			Name:      "body_prep_seconds",
			Help:      "Time spent resolving and hashing request bodies",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
)

func init() {
	debug.Registry().MustRegister(requestsTotal, requestDuration, bodyPrepDuration)
}

// statusTransportError labels requests that got no response.
const statusTransportError = "error"

func observeRequest(op string, status int, took time.Duration) {
	label := statusTransportError
	if status > 0 {
		label = strconv.Itoa(status)
	}
	opType := "unknown"
	if a := s3action.ParseAction(op); a != s3action.Unknown {
		opType = a.OperationType().String()
	}
	requestsTotal.WithLabelValues(op, opType, label).Inc()
	requestDuration.WithLabelValues(op).Observe(took.Seconds())
}

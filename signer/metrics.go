// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package signer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/obolnetwork/starsign/app/promauto"
)

const (
	signerLocal  = "local"
	signerRemote = "remote"

	resultOK       = "ok"
	resultError    = "error"
	resultRejected = "rejected"
)

var (
	signCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "starsign",
		Subsystem: "signer",
		Name:      "sign_total",
		Help:      "Total number of signing requests by signer type and result",
	}, []string{"signer", "result"})

	remoteLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "starsign",
		Subsystem: "signer",
		Name:      "remote_latency_seconds",
		Help:      "Latency of remote signer requests in seconds by result",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"result"})
)

// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package cmd

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/obolnetwork/starsign/app/promauto"
)

var hashCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "starsign",
	Subsystem: "eip712",
	Name:      "hash_total",
	Help:      "Total number of EIP-712 digests computed",
})

// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package tracer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/obolnetwork/starsign/app/tracer"
)

type exportedSpan struct {
	Name        string
	SpanContext struct {
		TraceID string
		SpanID  string
	}
	Parent struct {
		SpanID string
	}
	Attributes []struct {
		Key string
	}
}

func TestNoopSign(_ *testing.T) {
	// Spans are dropped until Init is called.
	ctx, span := tracer.Start(context.Background(), "cmd/sign")
	defer span.End()

	sign(ctx, "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")
}

func TestStdOutSign(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	stop, err := tracer.Init(tracer.WithStdOut(&buf))
	require.NoError(t, err)

	var span trace.Span
	ctx, span = tracer.Start(ctx, "cmd/sign")
	sign(ctx, "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")
	span.End()

	require.NoError(t, stop(ctx))

	// Children end first, so they are exported first.
	var spans []exportedSpan
	d := json.NewDecoder(&buf)
	for d.More() {
		var s exportedSpan
		require.NoError(t, d.Decode(&s))
		spans = append(spans, s)
	}

	require.Len(t, spans, 2)

	child, root := spans[0], spans[1]
	require.Equal(t, "signer/remote.Sign", child.Name)
	require.Equal(t, "cmd/sign", root.Name)
	require.Equal(t, root.SpanContext.TraceID, child.SpanContext.TraceID)
	require.Equal(t, root.SpanContext.SpanID, child.Parent.SpanID)
	require.Len(t, child.Attributes, 2)
	require.Equal(t, "url", child.Attributes[0].Key)
	require.Equal(t, "account", child.Attributes[1].Key)
	require.Empty(t, root.Attributes)
}

func sign(ctx context.Context, account string) {
	_, span := tracer.Start(ctx, "signer/remote.Sign", trace.WithAttributes(
		attribute.String("url", "http://localhost:8545"),
		attribute.String("account", account),
	))
	defer span.End()
}

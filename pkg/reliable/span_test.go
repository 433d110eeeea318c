// Copyright (c) 2026 Lerian Studio. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package reliable

import (
	"context"
	"errors"
	"testing"

	"github.com/LerianStudio/dbguard/pkg/circuitbreaker"
	"github.com/LerianStudio/dbguard/pkg/db"
	"github.com/LerianStudio/dbguard/pkg/model"
	"github.com/LerianStudio/dbguard/pkg/timeout"

	libCommons "github.com/LerianStudio/lib-commons/v3/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

func tracedContext(t *testing.T) (context.Context, *tracetest.SpanRecorder) {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return libCommons.ContextWithTracer(context.Background(), tp.Tracer("reliable-test")), rec
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}

	return attribute.Value{}, false
}

func TestExecute_SpanCarriesOperationAttributes(t *testing.T) {
	t.Parallel()

	c, raw, _ := newTestClient(t, circuitbreaker.Config{}, timeout.Config{})
	ctx, rec := tracedContext(t)

	raw.EXPECT().Exec(gomock.Any(), "DELETE FROM sessions").Return(int64(0), nil)

	_, err := c.Execute(ctx, model.OperationContext{
		OperationType: model.OperationBatchDelete,
		Name:          "purge-sessions",
		Table:         "sessions",
	}, func(ctx context.Context, client db.Client) (any, error) {
		return client.Exec(ctx, "DELETE FROM sessions")
	})
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "reliable.execute", span.Name())
	assert.NotEqual(t, codes.Error, span.Status().Code)

	opType, ok := spanAttr(span, "db.operation.type")
	require.True(t, ok)
	assert.Equal(t, string(model.OperationBatchDelete), opType.AsString())

	name, ok := spanAttr(span, "db.operation.name")
	require.True(t, ok)
	assert.Equal(t, "purge-sessions", name.AsString())

	table, ok := spanAttr(span, "db.sql.table")
	require.True(t, ok)
	assert.Equal(t, "sessions", table.AsString())

	opID, ok := spanAttr(span, "app.request.operation_id")
	require.True(t, ok)
	assert.NotEmpty(t, opID.AsString())
}

func TestExecute_SpanRecordsFailure(t *testing.T) {
	t.Parallel()

	c, raw, _ := newTestClient(t,
		circuitbreaker.Config{Retry: circuitbreaker.RetryConfig{Attempts: 1}},
		timeout.Config{})
	ctx, rec := tracedContext(t)

	constraint := errors.New(`ERROR: duplicate key value violates unique constraint "accounts_pkey"`)

	raw.EXPECT().Exec(gomock.Any(), gomock.Any()).Return(int64(0), constraint)

	_, err := c.Execute(ctx, model.OperationContext{Name: "insert-account"},
		func(ctx context.Context, client db.Client) (any, error) {
			return client.Exec(ctx, "INSERT INTO accounts (id) VALUES ($1)", 1)
		})
	require.Error(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	opType, ok := spanAttr(spans[0], "db.operation.type")
	require.True(t, ok)
	assert.Equal(t, string(model.OperationQuery), opType.AsString())
}

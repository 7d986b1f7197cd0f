package sources

import (
	"testing"

	"github.com/stretchr/testify/require"

	"govpanel/internal/exporter"
)

func writeResult[T exporter.Record](t *testing.T, path string, res *Result[T]) {
	t.Helper()
	require.NoError(t, exporter.NewCSVWriter().WriteSimpleCSV(path, res.Header, res.Records()))
}

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermesh/qbsync/pkg/customers"
	"github.com/ledgermesh/qbsync/pkg/errors"
	"github.com/ledgermesh/qbsync/pkg/sync"
)

func sampleResult() *sync.Result {
	return &sync.Result{
		ExcelCount: 4,
		QBCount:    3,
		Comparison: &customers.Comparison{
			Matched: 2,
			Conflicts: []customers.Conflict{{
				ID:        "3",
				ExcelName: "Initech",
				QBName:    "Initech Inc",
				Reason:    customers.ReasonAttributeMismatch,
			}},
			OnlyInExcel: []customers.Customer{{ID: "5", Name: "Hooli"}},
			OnlyInQB:    []customers.Customer{{ID: "4", Name: "Umbrella"}},
		},
		WriteBack: &customers.WriteOutcome{Results: []customers.WriteResult{
			{Customer: customers.Customer{ID: "5", Name: "Hooli"}, Status: customers.WriteCreated},
		}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
		{"JSON", "", true},
	}

	for _, tt := range tests {
		t.Run("input_"+tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	payload := New(sampleResult())

	assert.Equal(t, StatusSuccess, payload.Status)
	assert.NotEmpty(t, payload.RunID)
	assert.NotEmpty(t, payload.GeneratedAt)

	assert.Equal(t, Summary{
		ExcelTotal:  4,
		QBTotal:     3,
		Matched:     2,
		Conflicts:   1,
		OnlyInExcel: 1,
		OnlyInQB:    1,
	}, payload.Summary)

	require.NotNil(t, payload.WriteBack)
	assert.Equal(t, 1, payload.WriteBack.Created)
	assert.Equal(t, 0, payload.WriteBack.Failed)
	assert.Empty(t, payload.WriteBack.Error)
}

func TestNewWriteBackError(t *testing.T) {
	result := sampleResult()
	result.WriteBack = &customers.WriteOutcome{
		Results: []customers.WriteResult{},
		Err:     errors.New("connection reset"),
	}

	payload := New(result)
	require.NotNil(t, payload.WriteBack)
	assert.Equal(t, "connection reset", payload.WriteBack.Error)
}

func TestNewDryRunOmitsWriteBack(t *testing.T) {
	result := sampleResult()
	result.WriteBack = nil

	payload := New(result)
	assert.Nil(t, payload.WriteBack)
}

func TestNewError(t *testing.T) {
	payload := NewError(&errors.TransportError{Stage: "open", Err: errors.New("refused")})

	assert.Equal(t, StatusError, payload.Status)
	assert.NotEmpty(t, payload.RunID)
	assert.Contains(t, payload.Error, "refused")
	assert.NotNil(t, payload.Conflicts, "collections encode as [] rather than null")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(sampleResult()).Write(&buf, FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "success", decoded["status"])

	summary, ok := decoded["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), summary["matched"])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(sampleResult()).Write(&buf, FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "success", decoded["status"])
}

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "nested", "out.json")
	require.NoError(t, New(sampleResult()).WriteFile(path, FormatJSON))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Payload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, StatusSuccess, decoded.Status)
}

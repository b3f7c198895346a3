package interview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtp-id/talenta/internal/sanitize"
	"github.com/dtp-id/talenta/pkg/models"
)

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    models.InterviewResult
		wantErr bool
	}{
		{
			name:    "plain",
			payload: `{"area_fungsi":"Sains Data","level":4}`,
			want:    models.InterviewResult{AreaFungsi: "Sains Data", Level: 4},
		},
		{
			name:    "escaped quotes",
			payload: `{\"area_fungsi\": \"Layanan TI\", \"level\": 2}`,
			want:    models.InterviewResult{AreaFungsi: "Layanan TI", Level: 2},
		},
		{
			name:    "level as string",
			payload: ` {"area_fungsi":"Tata Kelola TI","level":"3"} `,
			want:    models.InterviewResult{AreaFungsi: "Tata Kelola TI", Level: 3},
		},
		{name: "not json", payload: `area: x`, wantErr: true},
		{name: "missing area", payload: `{"level":3}`, wantErr: true},
		{name: "bad level", payload: `{"area_fungsi":"x","level":"tinggi"}`, wantErr: true},
		{name: "missing level", payload: `{"area_fungsi":"x"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResult(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResult_KeepsStatus(t *testing.T) {
	got, err := ParseResult(`{"area_fungsi":"x","level":1,"status":"Lulus"}`)
	require.NoError(t, err)
	require.NotNil(t, got.Status)
	assert.Equal(t, "Lulus", *got.Status)
}

func TestExtractResult_NoTag(t *testing.T) {
	_, err := ExtractResult("tidak ada hasil")
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestRenderResult(t *testing.T) {
	block, err := RenderResult(models.InterviewResult{AreaFungsi: "Layanan TI", Level: 2}.WithStatus("Gagal"))
	require.NoError(t, err)
	assert.Equal(t, `<RESULT>{"area_fungsi":"Layanan TI","level":2,"status":"Gagal"}</RESULT>`, block)
}

func TestWithDisplayStatus(t *testing.T) {
	stored := &models.TranscriptEntry{
		ID:         1,
		AIResponse: "Terima kasih.\n\n<RESULT>{\"area_fungsi\":\"Sains Data\",\"level\":4,\"status\":\"Unassessed\"}</RESULT>",
		Result:     &models.InterviewResult{AreaFungsi: "Sains Data", Level: 4},
	}
	original := stored.AIResponse

	shown := WithDisplayStatus(stored, models.AssessmentLulus)

	assert.Equal(t, "Terima kasih.\n\n<RESULT>{\"area_fungsi\":\"Sains Data\",\"level\":4,\"status\":\"Lulus\"}</RESULT>", shown.AIResponse)
	assert.Equal(t, original, stored.AIResponse, "stored entry untouched")
	assert.Nil(t, stored.Result.Status)
}

func TestWithDisplayStatus_ParsesUntypedRows(t *testing.T) {
	stored := &models.TranscriptEntry{AIResponse: `<RESULT>{"area_fungsi":"a","level":1}</RESULT>`}
	shown := WithDisplayStatus(stored, models.AssessmentUnassessed)
	assert.Equal(t, `<RESULT>{"area_fungsi":"a","level":1,"status":"Unassessed"}</RESULT>`, shown.AIResponse)
}

func TestWithDisplayStatus_UnparsableLeftAsIs(t *testing.T) {
	stored := &models.TranscriptEntry{AIResponse: `Selesai <RESULT>bukan json</RESULT>`}
	shown := WithDisplayStatus(stored, models.AssessmentGagal)
	assert.Equal(t, stored.AIResponse, shown.AIResponse)
}

func TestWithDisplayStatus_NoTag(t *testing.T) {
	stored := &models.TranscriptEntry{AIResponse: "Apa pengalaman Anda?"}
	shown := WithDisplayStatus(stored, models.AssessmentLulus)
	assert.Equal(t, stored.AIResponse, shown.AIResponse)
	assert.NotSame(t, stored, shown)
}

func TestWithDisplayStatus_KeepsExtraKeys(t *testing.T) {
	stored := &models.TranscriptEntry{
		ID:         7,
		AIResponse: `Selesai. <RESULT>{"area_fungsi":"Data Science","level":4,"alasan":"kuat di SQL","status":"lulus"}</RESULT>`,
		Result:     &models.InterviewResult{AreaFungsi: "Data Science", Level: 4},
	}

	shown := WithDisplayStatus(stored, models.AssessmentGagal)

	payload, ok := sanitize.ResultPayload(shown.AIResponse)
	require.True(t, ok)
	assert.JSONEq(t, `{"area_fungsi":"Data Science","level":4,"alasan":"kuat di SQL","status":"Gagal"}`, payload)
	assert.True(t, strings.HasPrefix(shown.AIResponse, "Selesai. "))
	require.NotNil(t, shown.Result.Status)
	assert.Equal(t, "Gagal", *shown.Result.Status)
	assert.Contains(t, stored.AIResponse, `"status":"lulus"`, "stored entry untouched")
}

func TestPatchStatus(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
		wantErr  bool
	}{
		{
			name:     "adds status",
			payload:  `{"area_fungsi":"a","level":1}`,
			expected: `{"area_fungsi":"a","level":1,"status":"Lulus"}`,
		},
		{
			name:     "overrides status and keeps nested values",
			payload:  `{"area_fungsi":"a","level":"2","detail":{"skor":[1,2]},"status":"x"}`,
			expected: `{"area_fungsi":"a","level":"2","detail":{"skor":[1,2]},"status":"Lulus"}`,
		},
		{
			name:     "escaped quotes",
			payload:  `{\"area_fungsi\":\"a\",\"level\":3,\"catatan\":\"ok\"}`,
			expected: `{"area_fungsi":"a","level":3,"catatan":"ok","status":"Lulus"}`,
		},
		{
			name:    "not an object",
			payload: `[1,2]`,
			wantErr: true,
		},
		{
			name:    "null payload",
			payload: `null`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PatchStatus(tt.payload, "Lulus")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, got)
		})
	}
}

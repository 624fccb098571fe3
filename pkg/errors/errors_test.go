package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMatchesByCode(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("dial tcp: refused"), CodeGenerationUnavailable, "llm call failed")
	outer := fmt.Errorf("orchestrate: %w", wrapped)

	assert.ErrorIs(t, outer, ErrGenerationUnavailable)
	assert.NotErrorIs(t, outer, ErrGenerationParse)
	assert.True(t, IsGenerationFailure(outer))
	assert.Equal(t, http.StatusInternalServerError, AsAppError(outer).HTTPStatus)
}

func TestCodeToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeMissingField:          http.StatusBadRequest,
		CodeEntryNotFound:         http.StatusNotFound,
		CodeChapterRecordMissing:  http.StatusNotFound,
		CodeStaleChapter:          http.StatusConflict,
		CodeGenerationInProgress:  http.StatusConflict,
		CodeTTSProviderError:      http.StatusBadGateway,
		CodeGenerationParseError:  http.StatusInternalServerError,
		CodeUnauthorized:          http.StatusUnauthorized,
		CodeNothingToNarrate:      http.StatusBadRequest,
		CodeGenerationUnavailable: http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, "code %s", code)
	}
}

func TestWithDetailDoesNotMutateShared(t *testing.T) {
	detailed := ErrInvalidParam.WithDetail("mood")
	assert.Equal(t, "mood", detailed.Detail)
	assert.Empty(t, ErrInvalidParam.Detail)
}

func TestAsAppErrorWrapsPlainErrors(t *testing.T) {
	appErr := AsAppError(fmt.Errorf("boom"))
	assert.Equal(t, CodeUnknown, appErr.Code)
	assert.False(t, IsAppError(fmt.Errorf("boom")))
}
